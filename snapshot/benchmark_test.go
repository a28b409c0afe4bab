package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/flatmap"
	"github.com/outofforest/flatmap/persistence"
	"github.com/outofforest/flatmap/pkg/filedev"
)

// go test -bench=. -run=^$ -cpuprofile profile.out -benchtime=5x
// go tool pprof -http="localhost:8000" pprofbin ./profile.out

func BenchmarkSaveLoad(b *testing.B) {
	const size = 1 << 15

	b.StopTimer()
	b.ResetTimer()

	requireT := require.New(b)

	dev, err := filedev.Open(filepath.Join(b.TempDir(), "dev"), 16*1024*1024)
	requireT.NoError(err)
	defer dev.Close()

	m, err := flatmap.NewProbe[uint64, uint64](flatmap.Config{Width: 256, Height: 256})
	requireT.NoError(err)
	for i := range uint64(size) {
		requireT.NoError(m.Insert(i*7919, i))
	}

	for bi := 0; bi < b.N; bi++ {
		requireT.NoError(persistence.Initialize(dev, true))

		s, err := persistence.OpenStore(dev)
		requireT.NoError(err)

		b.StartTimer()
		requireT.NoError(Save(s, m.Layout(), CompressionLZ4))
		m2, err := LoadMap[uint64, uint64](s)
		b.StopTimer()

		requireT.NoError(err)
		requireT.Equal(m.Len(), m2.Len())
	}
}
