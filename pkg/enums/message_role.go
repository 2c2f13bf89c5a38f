package enums

import "fmt"

// MessageRole is the author of one conversation entry.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

var validMessageRoles = []MessageRole{
	MessageRoleUser,
	MessageRoleAssistant,
}

func (r MessageRole) IsValid() bool {
	for _, candidate := range validMessageRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseMessageRole(value string) (MessageRole, error) {
	for _, candidate := range validMessageRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message role %q", value)
}
