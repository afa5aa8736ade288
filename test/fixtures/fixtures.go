package fixtures

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	DirectorA = uuid.MustParse("6f1c2a3e-1111-4a4a-9c9c-000000000001")
	DirectorB = uuid.MustParse("6f1c2a3e-2222-4b4b-9d9d-000000000002")
)

func ChildJSON(name, birthDate string) []byte {
	return []byte(fmt.Sprintf(`{"name":%q,"birth_date":%q}`, name, birthDate))
}

func MessageJSON(childID uuid.UUID, title string, deliveryDate time.Time) []byte {
	return []byte(fmt.Sprintf(
		`{"child_id":%q,"title":%q,"content":"A note from the past","type":"text","delivery_date":%q}`,
		childID.String(), title, deliveryDate.UTC().Format(time.RFC3339)))
}
