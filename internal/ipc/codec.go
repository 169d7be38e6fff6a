package ipc

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
)

// DefaultMaxMessageSize bounds a single framed message.
const DefaultMaxMessageSize = 64 * 1024

const headerSize = 4

// ErrClosedWithoutMessage reports a peer that closed the connection before
// sending anything. Accept loops treat it as benign.
var ErrClosedWithoutMessage = errors.New("connection closed without a message")

// ErrMessageTooLarge reports a frame that exceeds the configured bound.
var ErrMessageTooLarge = errors.New("message exceeds maximum size")

// Send serializes value as JSON and writes it as one length-prefixed frame.
// maxSize bounds the encoded payload; a non-positive value falls back to
// DefaultMaxMessageSize, mirroring Receive.
func Send(conn net.Conn, maxSize int, value any) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if len(payload) > maxSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrMessageTooLarge, len(payload), maxSize)
	}

	frame := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[headerSize:], payload)

	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Receive reads one length-prefixed frame and decodes it into out. maxSize
// bounds the payload; a non-positive value falls back to
// DefaultMaxMessageSize. A peer that closes before sending a header yields
// ErrClosedWithoutMessage.
func Receive(conn net.Conn, maxSize int, out any) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}

	var header [headerSize]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrClosedWithoutMessage
		}
		return fmt.Errorf("read message header: %w", err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if length == 0 {
		return errors.New("empty message frame")
	}
	if int(length) > maxSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrMessageTooLarge, length, maxSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return fmt.Errorf("read message payload: %w", err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
