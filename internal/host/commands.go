package host

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/udisondev/villagerloot/internal/model"
)

// Commands implements Host by formatting command lines for a Runner.
type Commands struct {
	runner Runner
}

var _ Host = (*Commands)(nil)

// NewCommands creates a command-line Host over runner.
func NewCommands(runner Runner) *Commands {
	return &Commands{runner: runner}
}

func (c *Commands) SpawnLoot(ctx context.Context, dim string, loc model.Location, table string) error {
	if !loc.IsFinite() {
		return fmt.Errorf("spawn loot: invalid location %+v", loc)
	}
	_, err := c.run(ctx, inDimension(dim, fmt.Sprintf("loot spawn %s loot %s", coords(loc), quote(table))))
	return err
}

func (c *Commands) LoadStructure(ctx context.Context, dim string, name string, loc model.Location) error {
	if !loc.IsFinite() {
		return fmt.Errorf("structure load %s: invalid location %+v", name, loc)
	}
	_, err := c.run(ctx, inDimension(dim, fmt.Sprintf("structure load %s %s", name, coords(loc))))
	return err
}

func (c *Commands) GiveItem(ctx context.Context, player string, item string, count int) error {
	if count <= 0 {
		return fmt.Errorf("give %s: count must be > 0, got %d", item, count)
	}
	_, err := c.run(ctx, fmt.Sprintf("give %s %s %d", quote(player), item, count))
	return err
}

func (c *Commands) Tell(ctx context.Context, player string, text string) error {
	raw, err := rawText(text)
	if err != nil {
		return err
	}
	_, err = c.run(ctx, fmt.Sprintf("tellraw %s %s", quote(player), raw))
	return err
}

func (c *Commands) PlaySound(ctx context.Context, player string, sound string) error {
	_, err := c.run(ctx, fmt.Sprintf("playsound %s %s", sound, quote(player)))
	return err
}

func (c *Commands) GameRule(ctx context.Context, rule string) (bool, error) {
	res, err := c.run(ctx, "gamerule "+rule)
	if err != nil {
		return false, err
	}
	return parseGameRule(rule, res.StatusMessage)
}

func (c *Commands) SetGameRule(ctx context.Context, rule string, value bool) error {
	_, err := c.run(ctx, fmt.Sprintf("gamerule %s %t", rule, value))
	return err
}

func (c *Commands) run(ctx context.Context, line string) (Result, error) {
	res, err := c.runner.Run(ctx, line)
	if err != nil {
		return res, fmt.Errorf("running %q: %w", line, err)
	}
	if err := res.Err(line); err != nil {
		return res, err
	}
	return res, nil
}

// parseGameRule reads "rule = value" as printed by the gamerule query.
func parseGameRule(rule, msg string) (bool, error) {
	_, value, ok := strings.Cut(msg, "=")
	if !ok {
		return false, fmt.Errorf("gamerule %s: unexpected response %q", rule, msg)
	}
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Errorf("gamerule %s: parsing %q: %w", rule, msg, err)
	}
	return v, nil
}

func coords(loc model.Location) string {
	return formatCoord(loc.X) + " " + formatCoord(loc.Y) + " " + formatCoord(loc.Z)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// inDimension runs line in dim unless it is the overworld, where commands
// from the bridge already execute.
func inDimension(dim, line string) string {
	if dim == "" || dim == model.DimensionOverworld {
		return line
	}
	return "execute in " + strings.TrimPrefix(dim, "minecraft:") + " run " + line
}

// quote makes a player name or loot table path a single command argument.
func quote(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}

type rawTextPart struct {
	Text string `json:"text"`
}

func rawText(text string) (string, error) {
	b, err := json.Marshal(struct {
		RawText []rawTextPart `json:"rawtext"`
	}{RawText: []rawTextPart{{Text: text}}})
	if err != nil {
		return "", fmt.Errorf("encoding tellraw text: %w", err)
	}
	return string(b), nil
}
