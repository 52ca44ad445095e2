package system

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	coresys "github.com/shapeflow/shapesim/internal/core/system"
	"github.com/shapeflow/shapesim/internal/game"
	"go.uber.org/zap"
)

type CommandKind int

const (
	CmdSpawn CommandKind = iota
	CmdDestroy
	CmdNewGame
	CmdSave
	CmdLoad
	CmdLevel
	CmdRates
)

// Command is one driver request, applied between simulation steps.
type Command struct {
	Kind        CommandKind
	Count       int
	Slot        string
	Level       int32
	Creation    float32
	Destruction float32
}

// ParseCommand reads one console line:
//
//	spawn [n] | destroy [n] | new | save [slot] | load [slot] | level <id> | rates <create> <destroy>
func ParseCommand(line string) (Command, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	count := func() (int, error) {
		if len(f) < 2 {
			return 1, nil
		}
		n, err := strconv.Atoi(f[1])
		if err != nil || n < 1 {
			return 0, fmt.Errorf("%s: bad count %q", f[0], f[1])
		}
		return n, nil
	}
	slot := ""
	if len(f) > 1 {
		slot = strings.Join(f[1:], " ")
	}

	switch strings.ToLower(f[0]) {
	case "spawn", "s":
		n, err := count()
		return Command{Kind: CmdSpawn, Count: n}, err
	case "destroy", "x":
		n, err := count()
		return Command{Kind: CmdDestroy, Count: n}, err
	case "new", "n":
		return Command{Kind: CmdNewGame}, nil
	case "save":
		return Command{Kind: CmdSave, Slot: slot}, nil
	case "load":
		return Command{Kind: CmdLoad, Slot: slot}, nil
	case "level":
		if len(f) != 2 {
			return Command{}, fmt.Errorf("level: want one id")
		}
		id, err := strconv.ParseInt(f[1], 10, 32)
		if err != nil {
			return Command{}, fmt.Errorf("level: bad id %q", f[1])
		}
		return Command{Kind: CmdLevel, Level: int32(id)}, nil
	case "rates":
		if len(f) != 3 {
			return Command{}, fmt.Errorf("rates: want creation and destruction")
		}
		c, err1 := strconv.ParseFloat(f[1], 32)
		d, err2 := strconv.ParseFloat(f[2], 32)
		if err1 != nil || err2 != nil {
			return Command{}, fmt.Errorf("rates: bad number")
		}
		return Command{Kind: CmdRates, Creation: float32(c), Destruction: float32(d)}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", f[0])
}

// InputSystem drains driver commands and applies them to the game.
// Phase 0 (Input).
type InputSystem struct {
	game       *game.Game
	saves      *Saves
	commands   <-chan Command
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(g *game.Game, saves *Saves, commands <-chan Command, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		game:       g,
		saves:      saves,
		commands:   commands,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case cmd, ok := <-s.commands:
			if !ok {
				return
			}
			s.apply(cmd)
		default:
			return
		}
	}
}

func (s *InputSystem) apply(cmd Command) {
	switch cmd.Kind {
	case CmdSpawn:
		for i := 0; i < cmd.Count; i++ {
			if err := s.game.SpawnShape(); err != nil {
				s.log.Error("spawn failed", zap.Error(err))
				return
			}
		}
	case CmdDestroy:
		for i := 0; i < cmd.Count; i++ {
			if !s.game.DestroyShape() {
				break
			}
		}
	case CmdNewGame:
		s.game.NewGame()
	case CmdSave:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.saves.Save(ctx, cmd.Slot); err != nil {
			s.log.Error("save failed", zap.String("slot", cmd.Slot), zap.Error(err))
		}
	case CmdLoad:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.saves.Load(ctx, cmd.Slot); err != nil {
			s.log.Error("load failed", zap.String("slot", cmd.Slot), zap.Error(err))
		}
	case CmdLevel:
		if err := s.game.SetLevel(cmd.Level); err != nil {
			s.log.Error("level change failed", zap.Error(err))
		}
	case CmdRates:
		s.game.SetRates(cmd.Creation, cmd.Destruction)
		s.log.Info("rates changed",
			zap.Float32("creation", cmd.Creation),
			zap.Float32("destruction", cmd.Destruction),
		)
	}
}
