package orders

const (
	TopicOrderPlaced = "storefront.order.placed"
	TopicOrderStatus = "storefront.order.status"
)

// Partition key = order_id so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
