// Package queue defines the reservation events exchanged over RabbitMQ and
// the background consumer that turns them into an audit log file.
package queue

// reservationQueueName is the durable queue both publisher and consumer
// declare.
const reservationQueueName = "parking.reservation"

// ReservationEvent is published after a reservation transaction commits.
// Action is "reserve" or "cancel". Publishing is best-effort: a broker
// outage never fails the request that triggered the event.
type ReservationEvent struct {
	Action     string `json:"action"`
	Floor      string `json:"floor"`
	SlotNumber int    `json:"slotNumber"`
	Phone      string `json:"phone"`
	OccurredAt string `json:"occurredAt"`
}
