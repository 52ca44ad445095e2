package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/shapeflow/shapesim/internal/codec"
	"github.com/shapeflow/shapesim/internal/core/event"
	"github.com/shapeflow/shapesim/internal/level"
	"github.com/shapeflow/shapesim/internal/shape"
	"go.uber.org/zap"
)

// Save encodes the game at codec.SaveVersion.
func (g *Game) Save() ([]byte, error) {
	return g.Encode(codec.SaveVersion)
}

// Encode writes the game in any supported format version. Version 0 is the
// legacy layout whose header is the shape count. Older versions drop what
// they cannot carry.
//
//	count                                   v >= 1 (v0: the header)
//	rng state, creation/destruction rates   v >= 5
//	level id                                v >= 4
//	level state block                       v >= 6
//	per shape: factory id                   v >= 8
//	           shape id, material id        v >= 1, v >= 2
//	           shape payload
func (g *Game) Encode(version int32) ([]byte, error) {
	if version < 0 || version > codec.SaveVersion {
		return nil, &codec.UnsupportedVersionError{Version: version, Max: codec.SaveVersion}
	}
	count := int32(g.roster.Len())

	var w *codec.Writer
	if version == 0 {
		w = codec.NewWriter(-count)
	} else {
		w = codec.NewWriter(version)
		w.WriteInt(count)
	}

	if version >= codec.VersionRandomState {
		state, err := g.pcg.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("encode random state: %w", err)
		}
		w.WriteBytes(state)
		w.WriteFloat(g.creationRate)
		w.WriteFloat(g.creationProgress)
		w.WriteFloat(g.destructionRate)
		w.WriteFloat(g.destructionProgress)
	}
	if version >= codec.VersionLevelID {
		w.WriteInt(g.level.ID)
	}
	if version >= codec.VersionLevelState {
		g.level.Save(w)
	}

	var err error
	g.roster.Each(func(s *shape.Shape) {
		if version >= codec.VersionFactories {
			f := s.OriginFactory()
			if f == nil {
				err = fmt.Errorf("shape at %d has no origin factory", s.SaveIndex())
				return
			}
			w.WriteInt(f.ID())
		}
		if version >= codec.VersionShapeID {
			w.WriteInt(s.ShapeID())
		}
		if version >= codec.VersionMaterialID {
			w.WriteInt(s.MaterialID())
		}
		s.Save(w, g.roster)
	})
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// staged is a fully decoded save waiting to replace the running game.
type staged struct {
	version int32

	pcg                 *rand.PCG
	creationRate        float32
	creationProgress    float32
	destructionRate     float32
	destructionProgress float32

	level       *level.Level
	levelCommit func()
	shapes      []*shape.Shape
}

// Load replaces the running game with a decoded save. A future version or
// any decode error leaves the game untouched.
func (g *Game) Load(data []byte) error {
	r, err := codec.NewReader(data)
	if err != nil {
		return err
	}
	st, err := g.decode(r)
	if err != nil {
		for _, s := range st.shapes {
			s.Recycle(g.pools)
		}
		return fmt.Errorf("load v%d: %w", r.Version(), err)
	}
	if err := g.commit(st); err != nil {
		return fmt.Errorf("load v%d: %w", r.Version(), err)
	}
	if rest := r.Remaining(); rest > 0 {
		g.log.Warn("trailing bytes after save", zap.Int("bytes", rest))
	}
	g.log.Info("game loaded",
		zap.Int32("version", st.version),
		zap.Int("shapes", len(st.shapes)),
		zap.Int32("level", st.level.ID),
	)
	event.Emit(g.bus, event.GameLoaded{Version: st.version, Shapes: len(st.shapes)})
	return nil
}

// minShapeRecord is the smallest encoded shape: position, rotation and scale.
// It bounds preallocation for counts read from an untrusted stream.
const minShapeRecord = 12 + 16 + 12

// decode reads everything without touching the running game. Shapes taken
// from factories are returned even on error so the caller can hand them
// back.
func (g *Game) decode(r *codec.Reader) (*staged, error) {
	v := r.Version()
	st := &staged{version: v}

	var count int
	if v <= 0 {
		count = int(-v)
	} else {
		count = r.ReadCount()
	}

	if v >= codec.VersionRandomState {
		state := r.ReadBytes()
		if err := r.Err(); err != nil {
			return st, fmt.Errorf("random state: %w", err)
		}
		st.pcg = &rand.PCG{}
		if err := st.pcg.UnmarshalBinary(state); err != nil {
			return st, fmt.Errorf("random state: %w", err)
		}
		st.creationRate = r.ReadFloat()
		st.creationProgress = r.ReadFloat()
		st.destructionRate = r.ReadFloat()
		st.destructionProgress = r.ReadFloat()
	}

	levelID := g.opts.StartLevel
	if v >= codec.VersionLevelID {
		levelID = r.ReadInt()
	}
	if err := r.Err(); err != nil {
		return st, err
	}
	lvl, err := g.levels.Get(levelID)
	if err != nil {
		return st, err
	}
	st.level = lvl
	if v >= codec.VersionLevelState {
		if st.levelCommit, err = lvl.Load(r); err != nil {
			return st, err
		}
	}

	st.shapes = make([]*shape.Shape, 0, min(count, r.Remaining()/minShapeRecord))
	for i := 0; i < count; i++ {
		var factoryID, shapeID, materialID int32
		if v >= codec.VersionFactories {
			factoryID = r.ReadInt()
		}
		if v >= codec.VersionShapeID {
			shapeID = r.ReadInt()
		}
		if v >= codec.VersionMaterialID {
			materialID = r.ReadInt()
		}
		if err := r.Err(); err != nil {
			return st, fmt.Errorf("shape %d: %w", i, err)
		}
		f, err := g.factories.Get(factoryID)
		if err != nil {
			return st, fmt.Errorf("shape %d: %w", i, err)
		}
		s, err := f.Get(shapeID, materialID)
		if err != nil {
			return st, fmt.Errorf("shape %d: %w", i, err)
		}
		st.shapes = append(st.shapes, s)
		if err := s.Load(r, g.pools); err != nil {
			return st, fmt.Errorf("shape %d: %w", i, err)
		}
	}
	return st, r.Err()
}

func (g *Game) commit(st *staged) error {
	g.roster.Clear()
	if st.pcg != nil {
		if !g.opts.ReseedOnLoad {
			*g.pcg = *st.pcg
		}
		g.creationRate = st.creationRate
		g.creationProgress = st.creationProgress
		g.destructionRate = st.destructionRate
		g.destructionProgress = st.destructionProgress
	}
	g.level = st.level
	if st.levelCommit != nil {
		st.levelCommit()
	}
	return g.roster.Restore(st.shapes)
}
