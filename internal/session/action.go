package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jason-s-yu/doko/internal/game"
)

// ErrInvalidAction is returned for messages that do not decode into a known
// command with well-formed parameters.
var ErrInvalidAction = errors.New("invalid action")

// maxChatLength bounds a chat message in runes.
const maxChatLength = 500

// Action is one decoded player command.
type Action interface {
	Command() string
}

type ReportHealth struct {
	GameType    game.GameType `json:"gameType"`
	GameSubType string        `json:"gameSubType"`
}

type Announce struct {
	Value string `json:"value"`
}

type PlayCard struct {
	CardID string `json:"cardId"`
}

type AcceptScore struct {
	Accept bool `json:"accept"`
}

// Leave drops the player's connection. With RemoveSeat the seat is blanked
// for someone else to take.
type Leave struct {
	RemoveSeat bool `json:"removeSeat"`
}

type Revert struct{}

type ViewLastTrick struct{}

type Chat struct {
	Text string `json:"text"`
}

// ClientPing is answered by the transport and never reaches the game.
type ClientPing struct{}

func (ReportHealth) Command() string  { return "reportHealth" }
func (Announce) Command() string      { return "announce" }
func (PlayCard) Command() string      { return "playCard" }
func (AcceptScore) Command() string   { return "acceptScore" }
func (Leave) Command() string         { return "leave" }
func (Revert) Command() string        { return "revert" }
func (ViewLastTrick) Command() string { return "viewLastTrick" }
func (Chat) Command() string          { return "chat" }
func (ClientPing) Command() string    { return "clientPing" }

type envelope struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params"`
}

// DecodeAction parses a client message of the form
// {"command": ..., "params": ...}. Single-argument commands take their
// argument as the first element of a params array or as the bare value;
// reportHealth takes an object.
func DecodeAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}

	switch env.Command {
	case "reportHealth":
		var a ReportHealth
		if err := decodeObject(env.Params, &a); err != nil {
			return nil, err
		}
		if a.GameType == "" {
			return nil, fmt.Errorf("%w: reportHealth needs a gameType", ErrInvalidAction)
		}
		return a, nil
	case "announce":
		var a Announce
		if err := firstParam(env.Params, &a.Value); err != nil {
			return nil, err
		}
		if a.Value == "" {
			return nil, fmt.Errorf("%w: announce needs a value", ErrInvalidAction)
		}
		return a, nil
	case "playCard":
		var a PlayCard
		if err := firstParam(env.Params, &a.CardID); err != nil {
			return nil, err
		}
		if a.CardID == "" {
			return nil, fmt.Errorf("%w: playCard needs a card id", ErrInvalidAction)
		}
		return a, nil
	case "acceptScore":
		var a AcceptScore
		if err := firstParam(env.Params, &a.Accept); err != nil {
			return nil, err
		}
		return a, nil
	case "leave":
		var a Leave
		if err := optionalParam(env.Params, &a.RemoveSeat); err != nil {
			return nil, err
		}
		return a, nil
	case "chat":
		var a Chat
		if err := firstParam(env.Params, &a.Text); err != nil {
			return nil, err
		}
		if a.Text == "" || utf8.RuneCountInString(a.Text) > maxChatLength {
			return nil, fmt.Errorf("%w: chat text must be 1 to %d characters", ErrInvalidAction, maxChatLength)
		}
		return a, nil
	case "revert":
		return Revert{}, nil
	case "viewLastTrick", "viewLast":
		return ViewLastTrick{}, nil
	case "clientPing":
		return ClientPing{}, nil
	case "":
		return nil, fmt.Errorf("%w: missing command", ErrInvalidAction)
	}
	return nil, fmt.Errorf("%w: unknown command %q", ErrInvalidAction, env.Command)
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// firstParam decodes a required single argument into v.
func firstParam(raw json.RawMessage, v any) error {
	if isAbsent(raw) {
		return fmt.Errorf("%w: missing parameter", ErrInvalidAction)
	}
	if isArray(raw) {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		if len(list) == 0 {
			return fmt.Errorf("%w: missing parameter", ErrInvalidAction)
		}
		raw = list[0]
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: bad parameter: %v", ErrInvalidAction, err)
	}
	return nil
}

// optionalParam is firstParam for arguments that may be left out.
func optionalParam(raw json.RawMessage, v any) error {
	if isAbsent(raw) || (isArray(raw) && bytes.Equal(bytes.Join(bytes.Fields(raw), nil), []byte("[]"))) {
		return nil
	}
	return firstParam(raw, v)
}

func decodeObject(raw json.RawMessage, v any) error {
	if isAbsent(raw) {
		return fmt.Errorf("%w: missing parameters", ErrInvalidAction)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: bad parameters: %v", ErrInvalidAction, err)
	}
	return nil
}
