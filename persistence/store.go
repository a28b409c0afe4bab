package persistence

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/outofforest/flatmap/blocks"
)

// firstRegionAddress is the address of the first block of the first snapshot region.
const firstRegionAddress blocks.BlockAddress = 1

// ErrNoSnapshot is returned by Load if nothing has been committed yet.
var ErrNoSnapshot = errors.New("no snapshot has been committed")

// Option configures the store.
type Option func(s *Store)

// WithLogger sets the logger used by the store.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// Store represents persistent storage keeping the last committed snapshot.
type Store struct {
	dev    Dev
	log    *slog.Logger
	sBlock superBlock
}

// OpenStore opens the persistent store.
func OpenStore(dev Dev, opts ...Option) (*Store, error) {
	sBlock, err := loadSuperBlock(dev)
	if err != nil {
		return nil, err
	}
	if err := validateSuperBlock(dev, sBlock); err != nil {
		return nil, err
	}

	s := &Store{
		dev:    dev,
		log:    slog.New(slog.DiscardHandler),
		sBlock: sBlock,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("store", sBlock.StoreID.String())

	return s, nil
}

// ID returns the ID of the store.
func (s *Store) ID() uuid.UUID {
	return s.sBlock.StoreID
}

// Revision returns the number of snapshots committed so far.
func (s *Store) Revision() uint64 {
	return s.sBlock.Revision
}

// Commit stores the snapshot and makes it the current one.
//
// Space after the superblock is split into two regions. The snapshot is written to the region not used by
// the current one and becomes current only when the superblock is updated, so if writing fails midway,
// the previous snapshot is still loaded.
func (s *Store) Commit(snapshot []byte) error {
	if len(snapshot) == 0 {
		return errors.New("snapshot can't be empty")
	}

	available := s.regionNBlocks() * blocks.BlockSize
	if int64(len(snapshot)) > available {
		return errors.Errorf("snapshot does not fit into the device, available: %d bytes, snapshot: %d",
			available, len(snapshot))
	}

	address := s.nextRegionAddress()
	for i := 0; i < len(snapshot); i += int(blocks.BlockSize) {
		chunk := snapshot[i:min(i+int(blocks.BlockSize), len(snapshot))]
		if err := s.WriteBlock(address+blocks.BlockAddress(int64(i)/blocks.BlockSize), chunk); err != nil {
			return err
		}
	}
	if err := s.Sync(); err != nil {
		return err
	}

	sBlock := s.sBlock
	sBlock.Revision++
	sBlock.SnapshotAddress = address
	sBlock.SnapshotSize = uint64(len(snapshot))
	sBlock.SnapshotChecksum = blocks.Checksum(snapshot)
	if err := writeSuperBlock(s.dev, sBlock); err != nil {
		return err
	}
	if err := s.Sync(); err != nil {
		return err
	}
	s.sBlock = sBlock

	s.log.Debug("Snapshot committed", "revision", sBlock.Revision, "address", sBlock.SnapshotAddress,
		"size", sBlock.SnapshotSize)
	return nil
}

// Load returns the last committed snapshot.
func (s *Store) Load() ([]byte, error) {
	if s.sBlock.SnapshotSize == 0 {
		return nil, errors.WithStack(ErrNoSnapshot)
	}

	snapshot := make([]byte, s.sBlock.SnapshotSize)
	for i := 0; i < len(snapshot); i += int(blocks.BlockSize) {
		chunk := snapshot[i:min(i+int(blocks.BlockSize), len(snapshot))]
		address := s.sBlock.SnapshotAddress + blocks.BlockAddress(int64(i)/blocks.BlockSize)
		if err := s.ReadBlock(address, chunk); err != nil {
			return nil, err
		}
	}
	if err := blocks.VerifyChecksum("snapshot", s.sBlock.SnapshotChecksum, snapshot); err != nil {
		return nil, err
	}

	s.log.Debug("Snapshot loaded", "revision", s.sBlock.Revision, "size", s.sBlock.SnapshotSize)
	return snapshot, nil
}

// ReadBlock reads raw block bytes from the addressed block.
func (s *Store) ReadBlock(address blocks.BlockAddress, p []byte) error {
	if len(p) == 0 || int64(len(p)) > blocks.BlockSize {
		return errors.Errorf("invalid size of output buffer: %d", len(p))
	}
	if uint64(address) >= s.sBlock.NBlocks {
		return errors.Errorf("block %d does not exist", address)
	}

	if _, err := s.dev.Seek(int64(address)*blocks.BlockSize, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}
	if _, err := io.ReadFull(s.dev, p); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// WriteBlock writes raw block bytes to the addressed block.
func (s *Store) WriteBlock(address blocks.BlockAddress, p []byte) error {
	if len(p) == 0 || int64(len(p)) > blocks.BlockSize {
		return errors.Errorf("invalid size of input buffer: %d", len(p))
	}
	if uint64(address) >= s.sBlock.NBlocks {
		return errors.Errorf("block %d does not exist", address)
	}

	return s.write(address, p)
}

// Sync forces data to be written to the dev.
func (s *Store) Sync() error {
	return errors.WithStack(s.dev.Sync())
}

// regionNBlocks returns the number of blocks in each snapshot region.
func (s *Store) regionNBlocks() int64 {
	return int64(s.sBlock.NBlocks-uint64(firstRegionAddress)) / 2
}

// nextRegionAddress returns the address of the region not used by the current snapshot.
func (s *Store) nextRegionAddress() blocks.BlockAddress {
	if s.sBlock.SnapshotSize != 0 && s.sBlock.SnapshotAddress == firstRegionAddress {
		return firstRegionAddress + blocks.BlockAddress(s.regionNBlocks())
	}
	return firstRegionAddress
}

func (s *Store) write(address blocks.BlockAddress, p []byte) error {
	if _, err := s.dev.Seek(int64(address)*blocks.BlockSize, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}
	n, err := s.dev.Write(p)
	if err != nil {
		return errors.WithStack(err)
	}
	if n != len(p) {
		return errors.WithStack(io.ErrShortWrite)
	}
	return nil
}

func validateSuperBlock(dev Dev, sBlock superBlock) error {
	if sBlock.Subject != storeSubject {
		return errors.New("device does not contain the store")
	}

	checksumComputed := sBlock.ComputeChecksum()
	if sBlock.Checksum != checksumComputed {
		return errors.Errorf("checksum mismatch for the superblock, computed: %016x, stored: %016x",
			uint64(checksumComputed), uint64(sBlock.Checksum))
	}

	if nBlocks := uint64(dev.Size() / blocks.BlockSize); sBlock.NBlocks > nBlocks {
		return errors.Errorf("device is smaller than the store, device blocks: %d, store blocks: %d",
			nBlocks, sBlock.NBlocks)
	}

	if sBlock.SnapshotSize != 0 {
		regionNBlocks := (sBlock.NBlocks - uint64(firstRegionAddress)) / 2
		if address := uint64(sBlock.SnapshotAddress); address != uint64(firstRegionAddress) &&
			address != uint64(firstRegionAddress)+regionNBlocks {
			return errors.Errorf("invalid snapshot address %d", address)
		}
		if sBlock.SnapshotSize > regionNBlocks*uint64(blocks.BlockSize) {
			return errors.Errorf("snapshot size %d exceeds the region", sBlock.SnapshotSize)
		}
	}

	return nil
}
