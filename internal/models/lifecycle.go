package models

import (
	"fmt"
	"strings"
)

// Lifecycle replaces the is_active/is_deleted flag pair: a deleted record can
// never be active because both states live in one column.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleInactive Lifecycle = "inactive"
	LifecycleDeleted  Lifecycle = "deleted"
)

func ParseLifecycle(s string) (Lifecycle, error) {
	switch l := Lifecycle(strings.ToLower(strings.TrimSpace(s))); l {
	case LifecycleActive, LifecycleInactive, LifecycleDeleted:
		return l, nil
	}
	return "", fmt.Errorf("unknown lifecycle %q", s)
}

func (l Lifecycle) IsActive() bool  { return l == LifecycleActive }
func (l Lifecycle) IsDeleted() bool { return l == LifecycleDeleted }
