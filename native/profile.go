package native

import (
	"fmt"
)

// StreamProfile identifies the stream a frame belongs to. Width and
// Height are zero for non-video streams.
type StreamProfile struct {
	Stream   Stream
	Format   Format
	Index    int
	UniqueID int
	FPS      int
	Width    int
	Height   int
}

func (p StreamProfile) String() string {
	if p.Width == 0 && p.Height == 0 {
		return fmt.Sprintf("%s#%d/%s@%d", p.Stream, p.Index, p.Format, p.FPS)
	}
	return fmt.Sprintf("%s#%d/%s %dx%d@%d", p.Stream, p.Index, p.Format, p.Width, p.Height, p.FPS)
}

type Vertex struct {
	X, Y, Z float32
}

type TextureCoordinate struct {
	U, V float32
}

type Vector struct {
	X, Y, Z float32
}

type Quaternion struct {
	X, Y, Z, W float32
}

type Pose struct {
	Translation         Vector
	Velocity            Vector
	Acceleration        Vector
	Rotation            Quaternion
	AngularVelocity     Vector
	AngularAcceleration Vector
	TrackerConfidence   uint32
	MapperConfidence    uint32
}
