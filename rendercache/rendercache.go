// Package rendercache remembers finished renders in a badger key-value store.
//
// A render with a fixed seed is a pure function of the scene bytes, the camera
// options and the seed, so the tone-mapped pixels can be reused whenever all
// three match.
package rendercache

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"photonr/camera"

	"github.com/dgraph-io/badger"
	"github.com/golang/glog"
	"golang.org/x/xerrors"
)

// Key prefixes that denote different tables in the key-value store.
const (
	KeyTypeRGB8 uint32 = 0
)

// Key fingerprints a render.  The first four bytes are the table prefix.
func Key(sceneBytes []byte, opts camera.Options, seed int64) []byte {
	h := sha256.New()

	var buf [8]byte
	writeUint64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeUint64(uint64(len(sceneBytes)))
	h.Write(sceneBytes)
	writeUint64(math.Float64bits(opts.AspectRatio))
	writeUint64(uint64(opts.ImageWidth))
	writeUint64(uint64(opts.SamplesPerPixel))
	writeUint64(uint64(opts.MaxDepth))
	writeUint64(uint64(seed))

	key := make([]byte, 4, 4+sha256.Size)
	binary.BigEndian.PutUint32(key[0:4], KeyTypeRGB8)
	return h.Sum(key)
}

type Cache struct {
	DB *badger.DB
}

func Open(dataDir string) (*Cache, error) {
	db, err := badger.Open(badger.DefaultOptions(dataDir).WithLogger(glogLogger{}))
	if err != nil {
		return nil, xerrors.Errorf("while opening badger kv dir: %w", err)
	}
	return &Cache{DB: db}, nil
}

func (c *Cache) Close() error {
	if err := c.DB.Close(); err != nil {
		return xerrors.Errorf("while closing badger kv dir: %w", err)
	}
	return nil
}

// Get returns the cached pixels for key.  ok is false on a miss.
func (c *Cache) Get(key []byte) (pixels []byte, ok bool, err error) {
	err = c.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		pixels, err = item.ValueCopy(nil)
		return err
	})
	if xerrors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, xerrors.Errorf("while reading cached render: %w", err)
	}
	return pixels, true, nil
}

func (c *Cache) Put(key, pixels []byte) error {
	err := c.DB.Update(func(txn *badger.Txn) error {
		return txn.Set(key, pixels)
	})
	if err != nil {
		return xerrors.Errorf("while writing cached render: %w", err)
	}
	return nil
}

// glogLogger routes badger's logging through glog.  Badger is chatty at info
// level, so that goes to V(2).
type glogLogger struct{}

func (glogLogger) Errorf(format string, args ...interface{}) {
	glog.Errorf(format, args...)
}

func (glogLogger) Warningf(format string, args ...interface{}) {
	glog.Warningf(format, args...)
}

func (glogLogger) Infof(format string, args ...interface{}) {
	glog.V(2).Infof(format, args...)
}

func (glogLogger) Debugf(format string, args ...interface{}) {
	glog.V(3).Infof(format, args...)
}
