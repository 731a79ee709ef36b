// Пакет events публикует доменные события CMS в NATS
package events

import (
	"encoding/json"
	"fmt"
)

// Conn - минимальный интерфейс NATS-подключения; *nats.Conn ему удовлетворяет
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher хранит Conn и тему subject для публикации событий
type Publisher struct {
	conn    Conn
	subject string
}

// NewPublisher создаёт Publisher, связывая Conn и subject
func NewPublisher(conn Conn, subject string) *Publisher {
	return &Publisher{conn: conn, subject: subject}
}

// Publish отправляет готовые байты в subject
func (p *Publisher) Publish(data []byte) error {
	return p.conn.Publish(p.subject, data)
}

// PublishJSON сериализует событие и отправляет его в subject
func (p *Publisher) PublishJSON(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.conn.Publish(p.subject, data)
}

// Subject возвращает тему публикации
func (p *Publisher) Subject() string {
	return p.subject
}
