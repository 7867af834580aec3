package client

import (
	"context"
	"encoding/json"
	"omegga-rpc/events"
)

type targetLine struct {
	Target string `json:"target"`
	Line   string `json:"line"`
}

// LoadOptions places a loaded save relative to its original position.
type LoadOptions struct {
	Quiet bool `json:"quiet"`
	OffX  int  `json:"offX"`
	OffY  int  `json:"offY"`
	OffZ  int  `json:"offZ"`
}

// Log, Error, Info, Warn and Trace write to the host's console log.
func (c *Client) Log(line string) error   { return c.Notify("log", line) }
func (c *Client) Error(line string) error { return c.Notify("error", line) }
func (c *Client) Info(line string) error  { return c.Notify("info", line) }
func (c *Client) Warn(line string) error  { return c.Notify("warn", line) }
func (c *Client) Trace(line string) error { return c.Notify("trace", line) }

// Writeln sends a raw line to the game server console.
func (c *Client) Writeln(line string) error { return c.Notify("writeln", line) }

// Broadcast sends a chat message to every player.
func (c *Client) Broadcast(line string) error { return c.Notify("broadcast", line) }

// Whisper sends a chat message to one player, by name or id.
func (c *Client) Whisper(target, line string) error {
	return c.Notify("whisper", targetLine{Target: target, Line: line})
}

// MiddlePrint shows line in the middle of one player's screen.
func (c *Client) MiddlePrint(target, line string) error {
	return c.Notify("middlePrint", targetLine{Target: target, Line: line})
}

func (c *Client) GetPlayers(ctx context.Context) ([]events.Player, error) {
	var players []events.Player
	err := c.Call(ctx, "getPlayers", nil, &players)
	return players, err
}

func (c *Client) GetAllPlayerPositions(ctx context.Context) ([]events.PlayerPosition, error) {
	var positions []events.PlayerPosition
	err := c.Call(ctx, "getAllPlayerPositions", nil, &positions)
	return positions, err
}

func (c *Client) GetRoleSetup(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.Call(ctx, "getRoleSetup", nil, &raw)
	return raw, err
}

func (c *Client) GetBanList(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.Call(ctx, "getBanList", nil, &raw)
	return raw, err
}

// GetSaves lists the save files known to the host.
func (c *Client) GetSaves(ctx context.Context) ([]string, error) {
	var saves []string
	err := c.Call(ctx, "getSaves", nil, &saves)
	return saves, err
}

// GetSavePath resolves a save name; ok is false when no such save exists.
func (c *Client) GetSavePath(ctx context.Context, name string) (path string, ok bool, err error) {
	var p *string
	if err := c.Call(ctx, "getSavePath", name, &p); err != nil {
		return "", false, err
	}
	if p == nil {
		return "", false, nil
	}
	return *p, true, nil
}

// ClearBricks removes every brick owned by target.
func (c *Client) ClearBricks(target string, quiet bool) error {
	return c.Notify("clearBricks", map[string]any{"target": target, "quiet": quiet})
}

func (c *Client) ClearAllBricks(quiet bool) error {
	return c.Notify("clearAllBricks", map[string]any{"quiet": quiet})
}

func (c *Client) SaveBricks(name string) error {
	return c.Notify("saveBricks", name)
}

func (c *Client) LoadBricks(name string, opts LoadOptions) error {
	return c.Notify("loadBricks", struct {
		Name string `json:"name"`
		LoadOptions
	}{Name: name, LoadOptions: opts})
}

// ChangeMap asks the host to load another map and reports whether it succeeded.
func (c *Client) ChangeMap(ctx context.Context, mapName string) (bool, error) {
	var ok bool
	err := c.Call(ctx, "changeMap", mapName, &ok)
	return ok, err
}

// GetPlayer looks a player up by name or id. It returns nil when nobody matches.
func (c *Client) GetPlayer(ctx context.Context, target string) (*events.Player, error) {
	var p *events.Player
	err := c.Call(ctx, "player.get", target, &p)
	return p, err
}

func (c *Client) GetPlayerRoles(ctx context.Context, target string) ([]string, error) {
	var roles []string
	err := c.Call(ctx, "player.getRoles", target, &roles)
	return roles, err
}

func (c *Client) GetPlayerPermissions(ctx context.Context, target string) (map[string]bool, error) {
	var perms map[string]bool
	err := c.Call(ctx, "player.getPermissions", target, &perms)
	return perms, err
}

func (c *Client) GetPlayerNameColor(ctx context.Context, target string) (string, error) {
	var color string
	err := c.Call(ctx, "player.getNameColor", target, &color)
	return color, err
}

// GetPlayerPosition returns nil when the player has no position (no pawn).
func (c *Client) GetPlayerPosition(ctx context.Context, target string) (*[3]float64, error) {
	var pos *[3]float64
	err := c.Call(ctx, "player.getPosition", target, &pos)
	return pos, err
}

func (c *Client) IsPlayerHost(ctx context.Context, target string) (bool, error) {
	var host bool
	err := c.Call(ctx, "player.isHost", target, &host)
	return host, err
}

// GetPlugin returns the host's description of another plugin, or nil if it is unknown.
func (c *Client) GetPlugin(ctx context.Context, name string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.Call(ctx, "plugin.get", name, &raw)
	return raw, err
}

// EmitPlugin sends a custom event to another plugin. It reports whether the target
// plugin received it.
func (c *Client) EmitPlugin(ctx context.Context, target, event string, args ...any) (bool, error) {
	params := append([]any{target, event}, args...)
	var ok bool
	err := c.Call(ctx, "plugin.emit", params, &ok)
	return ok, err
}

// StoreGet decodes the stored value for key into v. found is false when the key is unset.
func (c *Client) StoreGet(ctx context.Context, key string, v any) (found bool, err error) {
	var raw json.RawMessage
	if err := c.Call(ctx, "store.get", key, &raw); err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (c *Client) StoreSet(ctx context.Context, key string, v any) error {
	return c.Call(ctx, "store.set", []any{key, v}, nil)
}

func (c *Client) StoreDelete(ctx context.Context, key string) error {
	return c.Call(ctx, "store.delete", key, nil)
}

func (c *Client) StoreWipe(ctx context.Context) error {
	return c.Call(ctx, "store.wipe", nil, nil)
}

func (c *Client) StoreCount(ctx context.Context) (int, error) {
	var n int
	err := c.Call(ctx, "store.count", nil, &n)
	return n, err
}

func (c *Client) StoreKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := c.Call(ctx, "store.keys", nil, &keys)
	return keys, err
}
