package orders

const TopicOrderStatusChanged = "merchant.order.status_changed"

// Partition key = server order id so one order's events stay in order.
func PartitionKey(serverID string) []byte { return []byte(serverID) }
