package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatusValid(t *testing.T) {
	for _, status := range AllTaskStatuses {
		assert.True(t, status.Valid(), status)
	}
	assert.False(t, TaskStatus("").Valid())
	assert.False(t, TaskStatus("BLOCKED").Valid())
	assert.False(t, TaskStatus("to_do").Valid())
}

func TestTaskPriorityValid(t *testing.T) {
	for _, priority := range []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		assert.True(t, priority.Valid(), priority)
	}
	assert.False(t, TaskPriority("CRITICAL").Valid())
}

func TestSprintStatusValid(t *testing.T) {
	for _, status := range []SprintStatus{SprintPlanning, SprintActive, SprintCompleted} {
		assert.True(t, status.Valid(), status)
	}
	assert.False(t, SprintStatus("ARCHIVED").Valid())
}

func TestUserRoleValid(t *testing.T) {
	for _, role := range []UserRole{RoleAdmin, RoleManager, RoleDeveloper, RoleReporter} {
		assert.True(t, role.Valid(), role)
	}
	assert.False(t, UserRole("GUEST").Valid())
}
