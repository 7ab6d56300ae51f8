package session

import (
	"context"
	"encoding/json"
	"fmt"
)

// SceneCommand is the payload of newmar/command/scene.
type SceneCommand struct {
	Name string `json:"name"`
}

// AllCommand is the payload of newmar/command/all.
type AllCommand struct {
	On bool `json:"on"`
}

func (s *Session) subscribeCommands() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Subscribe(s.topics.SceneCommand(), s.qos, s.handleSceneCommand); err != nil {
		return fmt.Errorf("subscribing to scene commands: %w", err)
	}
	if err := s.publisher.Subscribe(s.topics.AllCommand(), s.qos, s.handleAllCommand); err != nil {
		return fmt.Errorf("subscribing to all-lights commands: %w", err)
	}
	s.logger.Info("listening for mqtt commands", "topic", s.topics.AllCommands())
	return nil
}

func (s *Session) handleSceneCommand(topic string, payload []byte) error {
	var cmd SceneCommand
	if err := json.Unmarshal(payload, &cmd); err != nil || cmd.Name == "" {
		s.logger.Warn("ignoring malformed scene command", "topic", topic, "payload", string(payload))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if _, err := s.LoadScene(ctx, cmd.Name, "mqtt"); err != nil {
		s.logger.Warn("scene command failed", "scene", cmd.Name, "error", err)
		return err
	}
	return nil
}

func (s *Session) handleAllCommand(topic string, payload []byte) error {
	var cmd AllCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		s.logger.Warn("ignoring malformed all-lights command", "topic", topic, "payload", string(payload))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var applied int
	if cmd.On {
		applied = s.Control.AllOn(ctx)
	} else {
		applied = s.Control.AllOff(ctx)
	}
	s.logger.Info("all-lights command applied", "on", cmd.On, "applied", applied)
	return nil
}
