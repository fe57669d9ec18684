package session

import (
	"strings"

	"inhouse-lobby-bot/internal/gc"
)

const (
	commandPrefix   = "!"
	commandShutdown = "shutdown"
	commandPing     = "ping"
	pingReply       = "pong"
)

// onChat handles lobby chat commands. Anything that is not a command, or a
// command the sender is not entitled to, is ignored.
func (s *Session) onChat(msg gc.ChatMessage) error {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, commandPrefix) {
		return nil
	}
	fields := strings.Fields(strings.ToLower(strings.TrimPrefix(text, commandPrefix)))
	if len(fields) == 0 {
		return nil
	}

	sender := int64(msg.SteamID)
	switch command := fields[0]; command {
	case commandShutdown:
		if s.params.VIPs.IsAdmin(sender) {
			return errShutdown
		}
	case commandPing:
		s.say(pingReply)
	default:
		if choice, ok := parseChoice(command); ok {
			s.offerChoice(sender, choice)
		}
	}
	return nil
}

// offerChoice records a side/pick choice from sender if it is that team's
// turn and the choice is still open.
func (s *Session) offerChoice(sender int64, choice Choice) {
	if s.State() != StatePickingSideOrder || s.turn == nil || s.turn.choice != "" {
		return
	}
	team, ok := s.job.TeamOf(sender)
	if !ok || team != s.turn.team {
		return
	}
	if !s.turn.pool.contains(choice) {
		return
	}
	s.turn.choice = choice
}
