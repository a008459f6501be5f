package identity

import "strings"

const keySeparator = "|"

// ConversationKey derives the thread id shared by two parties. The order of
// the arguments does not matter.
func ConversationKey(a, b string) (string, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return "", ErrInvalidIdentity
	}
	if b < a {
		a, b = b, a
	}

	first, err := Encode(a)
	if err != nil {
		return "", err
	}
	second, err := Encode(b)
	if err != nil {
		return "", err
	}
	return first + keySeparator + second, nil
}

// CustomerConversationKey is the thread between a customer and the staff pool,
// addressed through the pool's shared identity.
func CustomerConversationKey(customer, pool string) (string, error) {
	return ConversationKey(customer, pool)
}

// SplitConversationKey returns the two decoded parties of a key built by
// ConversationKey.
func SplitConversationKey(conversationID string) (string, string, bool) {
	first, second, ok := strings.Cut(conversationID, keySeparator)
	if !ok || first == "" || second == "" {
		return "", "", false
	}
	return Decode(first), Decode(second), true
}
