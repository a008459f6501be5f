package model

import "fmt"

const (
	MessagesTable              = "Messages"
	ConversationSummariesTable = "ConversationSummaries"
	QuotationsTable            = "Quotations"
)

// Secondary indexes expected on the tables above.
const (
	MessagesByConversationIndex = "byConversation"
	QuotationsByCustomerIndex   = "byCustomer"
	QuotationsByStatusIndex     = "byStatus"
)

func MessagePK(conversationID, messageID string) string {
	return fmt.Sprintf("%s#%s", conversationID, messageID)
}
