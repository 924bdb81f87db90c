package database

import (
	"context"
	"fmt"
	"realestate-backend/internal/models"
)

const messageColumns = "id, sender_id, receiver_id, content, created_at, is_read"

func scanMessage(row rowScanner) (models.Message, error) {
	var msg models.Message
	err := row.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Timestamp, &msg.Read)
	return msg, err
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// CreateMessage persists a message, the timestamp is assigned here.
func (s *Store) CreateMessage(ctx context.Context, senderID int64, receiverID int64, content string) (models.Message, error) {
	messageID, err := s.ids.Generate()
	if err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		ID:         messageID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  s.now().UnixMilli(),
		Read:       false,
	}

	_, err = s.db.ExecContext(ctx, "INSERT INTO messages ("+messageColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Timestamp, msg.Read)
	if err != nil {
		return models.Message{}, fmt.Errorf("inserting message: %w", err)
	}

	return msg, nil
}

// MessagesBetween returns the messages exchanged between two users in both directions, oldest first.
func (s *Store) MessagesBetween(ctx context.Context, user1ID int64, user2ID int64) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at, id
	`
	return s.queryMessages(ctx, query, user1ID, user2ID, user2ID, user1ID)
}

// ConversationsFor groups every message the user sent or received by the other party,
// ordered by the first message of each conversation.
func (s *Store) ConversationsFor(ctx context.Context, userID int64) ([]models.Conversation, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at, id
	`
	messages, err := s.queryMessages(ctx, query, userID, userID)
	if err != nil {
		return nil, err
	}

	conversations := []models.Conversation{}
	index := make(map[int64]int)

	for _, msg := range messages {
		other := msg.ReceiverID
		if msg.ReceiverID == userID {
			other = msg.SenderID
		}

		i, exists := index[other]
		if !exists {
			i = len(conversations)
			index[other] = i
			conversations = append(conversations, models.Conversation{UserID: other})
		}
		conversations[i].Messages = append(conversations[i].Messages, msg)
	}

	return conversations, nil
}

func (s *Store) FindMessage(ctx context.Context, id int64) (models.Message, error) {
	messages, err := s.queryMessages(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = ?", id)
	if err != nil {
		return models.Message{}, err
	}
	if len(messages) == 0 {
		return models.Message{}, ErrNotFound
	}
	return messages[0], nil
}

// DeleteMessage only deletes the message if it was sent by senderID.
func (s *Store) DeleteMessage(ctx context.Context, id int64, senderID int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ? AND sender_id = ?", id, senderID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}
