// Package events turns the host's requests and notifications into typed values.
//
// The host sends positional params (a JSON array) for everything except init, whose
// params are the plugin's config object. Parse never panics on a malformed message;
// it returns an error describing the mismatch.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"omegga-rpc/message"
	"strings"
)

// Methods the host sends.
const (
	MethodInit             = "init"
	MethodStop             = "stop"
	MethodBootstrap        = "bootstrap"
	MethodPluginPlayersRaw = "plugin:players:raw"
	MethodPluginEmit       = "plugin:emit"
	MethodLine             = "line"
	MethodStart            = "start"
	MethodHost             = "host"
	MethodVersion          = "version"
	MethodUnauthorized     = "unauthorized"
	MethodJoin             = "join"
	MethodLeave            = "leave"
	MethodChat             = "chat"
	MethodMapChange        = "mapchange"

	PrefixCommand     = "cmd:"
	PrefixChatCommand = "chatcmd:"
)

var ErrBadParams = errors.New("events: unexpected params")

// Event is one of the types below. Init, Stop and PluginEmit are requests the plugin
// must answer; their ID is the one to reply to.
type Event interface {
	event()
}

type Init struct {
	ID     message.ID
	Config json.RawMessage
}

type Stop struct {
	ID message.ID
}

type Bootstrap struct {
	Omegga json.RawMessage
}

type PluginPlayersRaw struct {
	Players []Player
}

type PluginEmit struct {
	ID    message.ID
	Event string
	From  string
	Args  []json.RawMessage
}

type Line struct {
	Text string
}

type Start struct {
	Map string
}

type Host struct {
	Name string
	ID   string
}

type Version struct {
	Version string
}

type Unauthorized struct{}

type Join struct {
	Player Player
}

type Leave struct {
	Player Player
}

// Command is a console command, sent as "cmd:<name>".
type Command struct {
	Player  string
	Command string
	Args    []string
}

// ChatCommand is a chat command, sent as "chatcmd:<name>".
type ChatCommand struct {
	Player  string
	Command string
	Args    []string
}

type Chat struct {
	Player  string
	Message string
}

type MapChange struct {
	Map string
}

// Unknown carries any message with a method this package does not know.
type Unknown struct {
	Message *message.RPCMessage
}

func (Init) event()             {}
func (Stop) event()             {}
func (Bootstrap) event()        {}
func (PluginPlayersRaw) event() {}
func (PluginEmit) event()       {}
func (Line) event()             {}
func (Start) event()            {}
func (Host) event()             {}
func (Version) event()          {}
func (Unauthorized) event()     {}
func (Join) event()             {}
func (Leave) event()            {}
func (Command) event()          {}
func (ChatCommand) event()      {}
func (Chat) event()             {}
func (MapChange) event()        {}
func (Unknown) event()          {}

// Parse converts an inbound request or notification into an Event.
func Parse(msg *message.RPCMessage) (Event, error) {
	if msg == nil || msg.IsResponse() {
		return nil, fmt.Errorf("%w: not a request or notification", ErrBadParams)
	}

	switch {
	case strings.HasPrefix(msg.Method, PrefixCommand):
		player, args, err := commandParams(msg)
		if err != nil {
			return nil, err
		}
		return Command{Player: player, Command: strings.TrimPrefix(msg.Method, PrefixCommand), Args: args}, nil
	case strings.HasPrefix(msg.Method, PrefixChatCommand):
		player, args, err := commandParams(msg)
		if err != nil {
			return nil, err
		}
		return ChatCommand{Player: player, Command: strings.TrimPrefix(msg.Method, PrefixChatCommand), Args: args}, nil
	}

	switch msg.Method {
	case MethodInit:
		return Init{ID: msg.ID, Config: msg.Params}, nil
	case MethodStop:
		return Stop{ID: msg.ID}, nil
	case MethodBootstrap:
		var p []json.RawMessage
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		ev := Bootstrap{}
		if len(p) > 0 {
			ev.Omegga = message.Normalize(p[0])
		}
		return ev, nil
	case MethodPluginPlayersRaw:
		var p [1][]Player
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return PluginPlayersRaw{Players: p[0]}, nil
	case MethodPluginEmit:
		var p []json.RawMessage
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if len(p) < 2 {
			return nil, fmt.Errorf("%w: %s needs event and sender", ErrBadParams, msg.Method)
		}
		ev := PluginEmit{ID: msg.ID}
		if err := json.Unmarshal(p[0], &ev.Event); err != nil {
			return nil, fmt.Errorf("%w: %s event: %v", ErrBadParams, msg.Method, err)
		}
		if err := json.Unmarshal(p[1], &ev.From); err != nil {
			return nil, fmt.Errorf("%w: %s sender: %v", ErrBadParams, msg.Method, err)
		}
		ev.Args = p[2:]
		return ev, nil
	case MethodLine:
		var p [1]string
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return Line{Text: p[0]}, nil
	case MethodStart:
		var p [1]struct {
			Map string `json:"map"`
		}
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return Start{Map: p[0].Map}, nil
	case MethodHost:
		var p [1]struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		}
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return Host{Name: p[0].Name, ID: p[0].ID}, nil
	case MethodVersion:
		var p [1]string
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return Version{Version: p[0]}, nil
	case MethodUnauthorized:
		return Unauthorized{}, nil
	case MethodJoin:
		var p [1]Player
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return Join{Player: p[0]}, nil
	case MethodLeave:
		var p [1]Player
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return Leave{Player: p[0]}, nil
	case MethodChat:
		var p [2]string
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return Chat{Player: p[0], Message: p[1]}, nil
	case MethodMapChange:
		var p [1]struct {
			Map string `json:"map"`
		}
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		return MapChange{Map: p[0].Map}, nil
	}
	return Unknown{Message: msg}, nil
}

// decode unmarshals the params array into v. Missing params count as an empty array.
func decode(msg *message.RPCMessage, v any) error {
	params := msg.Params
	if params == nil {
		params = json.RawMessage(`[]`)
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadParams, msg.Method, err)
	}
	return nil
}

func commandParams(msg *message.RPCMessage) (string, []string, error) {
	var p []string
	if err := decode(msg, &p); err != nil {
		return "", nil, err
	}
	if len(p) == 0 {
		return "", nil, fmt.Errorf("%w: %s needs a player", ErrBadParams, msg.Method)
	}
	return p[0], p[1:], nil
}
