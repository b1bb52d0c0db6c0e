package enums

import "fmt"

// ContactKind separates customers from vendors in the shared contacts table.
type ContactKind string

const (
	ContactKindCustomer ContactKind = "customer"
	ContactKindVendor   ContactKind = "vendor"
)

func (k ContactKind) String() string {
	return string(k)
}

func (k ContactKind) IsValid() bool {
	return k == ContactKindCustomer || k == ContactKindVendor
}

// ParseContactKind converts raw input into a ContactKind.
func ParseContactKind(value string) (ContactKind, error) {
	kind := ContactKind(value)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid contact kind %q", value)
	}
	return kind, nil
}
