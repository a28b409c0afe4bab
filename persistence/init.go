package persistence

import (
	"io"

	"github.com/google/uuid"
	"github.com/outofforest/photon"
	"github.com/pkg/errors"

	"github.com/outofforest/flatmap/blocks"
)

// storeSubject defines an identifier used to detect if the store exists on the device.
const storeSubject = 0b0100011001001100010000010101010001001101010000010101000000000001

// superBlockAddress is the address of the block keeping the superblock.
const superBlockAddress blocks.BlockAddress = 0

// Dev is the interface required from the device.
type Dev interface {
	io.ReadWriteSeeker
	Sync() error
	Size() int64
}

// ErrAlreadyInitialized is returned if during initialization, another store is detected on the device.
var ErrAlreadyInitialized = errors.New("store has been already initialized on the provided device")

// superBlock is the starting block of the store, pointing to the committed snapshot.
type superBlock struct {
	Subject          uint64
	StoreID          uuid.UUID
	Revision         uint64
	NBlocks          uint64
	SnapshotAddress  blocks.BlockAddress
	SnapshotSize     uint64
	SnapshotChecksum blocks.Hash
	Checksum         blocks.Hash
}

// ComputeChecksum computes checksum of the superblock.
func (b superBlock) ComputeChecksum() blocks.Hash {
	b.Checksum = 0
	return blocks.Checksum(photon.NewFromValue(&b).B)
}

// Initialize initializes new store on the device.
func Initialize(dev Dev, overwrite bool) error {
	if err := validateDev(dev, overwrite); err != nil {
		return err
	}

	sBlock := superBlock{
		Subject: storeSubject,
		StoreID: uuid.New(),
		NBlocks: uint64(dev.Size() / blocks.BlockSize),
	}
	if err := writeSuperBlock(dev, sBlock); err != nil {
		return err
	}

	return errors.WithStack(dev.Sync())
}

func validateDev(dev Dev, overwrite bool) error {
	size := dev.Size()
	nBlocks := size / blocks.BlockSize

	if nBlocks < MinNBlocks {
		return errors.Errorf("device is too small, minimum size is: %d bytes, provided: %d", MinNBlocks*blocks.BlockSize, size)
	}

	sBlock, err := loadSuperBlock(dev)
	if err != nil {
		return err
	}

	if sBlock.Subject == storeSubject && !overwrite {
		return errors.WithStack(ErrAlreadyInitialized)
	}

	return nil
}

func loadSuperBlock(dev Dev) (superBlock, error) {
	if _, err := dev.Seek(int64(superBlockAddress)*blocks.BlockSize, io.SeekStart); err != nil {
		return superBlock{}, errors.WithStack(err)
	}

	sBlock := photon.NewFromBytes[superBlock](make([]byte, blocks.BlockSize))
	if _, err := io.ReadFull(dev, sBlock.B); err != nil {
		return superBlock{}, errors.WithStack(err)
	}

	return *sBlock.V, nil
}

func writeSuperBlock(dev Dev, sBlock superBlock) error {
	sBlock.Checksum = sBlock.ComputeChecksum()

	if _, err := dev.Seek(int64(superBlockAddress)*blocks.BlockSize, io.SeekStart); err != nil {
		return errors.WithStack(err)
	}
	if _, err := dev.Write(photon.NewFromValue(&sBlock).B); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
