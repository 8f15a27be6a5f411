package bitcoin

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/chain"
	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/model"
	"go.uber.org/zap"
)

const (
	recordPreamble = 8
	xorKeyFile     = "xor.dat"
)

type location struct {
	file   string
	offset int64
	size   uint32
}

type header struct {
	prev chainhash.Hash
	loc  location
}

// BlockFileSource reads blocks straight from the blk*.dat files of a stopped
// or running node. Each record is the network magic, a little endian length
// and the serialized block. Files written with an obfuscation key in xor.dat
// are decoded transparently.
type BlockFileSource struct {
	dir       string
	net       wire.BitcoinNet
	genesis   chainhash.Hash
	converter *Converter
	logger    *zap.Logger

	mu      sync.Mutex
	key     []byte
	keyRead bool
	scanned map[string]int64
	headers map[chainhash.Hash]header
	order   []chainhash.Hash
	best    []chainhash.Hash
}

// NewBlockFileSource creates a source over the block files in dir.
func NewBlockFileSource(dir string, network model.Network, converter *Converter, logger *zap.Logger) (*BlockFileSource, error) {
	params, err := chainParamsForNetwork(network)
	if err != nil {
		return nil, err
	}
	return &BlockFileSource{
		dir:       dir,
		net:       params.Net,
		genesis:   *params.GenesisHash,
		converter: converter,
		logger:    logger.Named("blockfile_source"),
		scanned:   make(map[string]int64),
		headers:   make(map[chainhash.Hash]header),
	}, nil
}

// LatestHeight indexes newly written blocks and returns the best chain tip.
func (s *BlockFileSource) LatestHeight(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refreshLocked(); err != nil {
		return 0, err
	}
	if len(s.best) == 0 {
		return 0, fmt.Errorf("no chain from genesis in %s: %w", s.dir, chain.ErrBlockNotFound)
	}
	return uint64(len(s.best) - 1), nil
}

// FetchBlock reads the best chain block at height.
func (s *BlockFileSource) FetchBlock(ctx context.Context, height uint64) (*chain.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if height >= uint64(len(s.best)) {
		if err := s.refreshLocked(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	if height >= uint64(len(s.best)) {
		s.mu.Unlock()
		return nil, fmt.Errorf("block at height %d: %w", height, chain.ErrBlockNotFound)
	}
	hash := s.best[height]
	loc := s.headers[hash].loc
	key := s.key
	s.mu.Unlock()

	buf := make([]byte, loc.size)
	if err := readAt(filepath.Join(s.dir, loc.file), key, buf, loc.offset); err != nil {
		return nil, fmt.Errorf("read block %s: %w", hash, err)
	}
	var msg wire.MsgBlock
	if err := msg.Deserialize(bytes.NewReader(buf)); err != nil {
		return nil, fmt.Errorf("decode block %s: %w", hash, err)
	}
	if got := msg.BlockHash(); got != hash {
		return nil, fmt.Errorf("block at %s:%d hashes to %s, indexed as %s", loc.file, loc.offset, got, hash)
	}
	return s.converter.ConvertBlock(height, &msg)
}

func (s *BlockFileSource) refreshLocked() error {
	if !s.keyRead {
		key, err := os.ReadFile(filepath.Join(s.dir, xorKeyFile))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read obfuscation key: %w", err)
		}
		s.key = key
		s.keyRead = true
	}

	files, err := filepath.Glob(filepath.Join(s.dir, "blk*.dat"))
	if err != nil {
		return fmt.Errorf("list block files: %w", err)
	}
	sort.Strings(files)

	before := len(s.headers)
	for _, path := range files {
		if err := s.scanLocked(filepath.Base(path)); err != nil {
			return err
		}
	}
	if len(s.headers) != before || s.best == nil {
		s.rebuildLocked()
		s.logger.Info("block files indexed",
			zap.Int("headers", len(s.headers)),
			zap.Int("best_chain", len(s.best)),
		)
	}
	return nil
}

// scanLocked indexes the records of one file past the offset reached before.
// It stops at zeroed preallocated space or a record still being written.
func (s *BlockFileSource) scanLocked(name string) error {
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	off := s.scanned[name]
	preamble := make([]byte, recordPreamble)
	head := make([]byte, wire.MaxBlockHeaderPayload)
	for off+recordPreamble <= info.Size() {
		if err := readFileAt(f, s.key, preamble, off); err != nil {
			return fmt.Errorf("read %s at %d: %w", name, off, err)
		}
		magic := wire.BitcoinNet(binary.LittleEndian.Uint32(preamble[:4]))
		if magic == 0 {
			break
		}
		if magic != s.net {
			return fmt.Errorf("%s at %d: unexpected network magic %s", name, off, magic)
		}
		size := binary.LittleEndian.Uint32(preamble[4:])
		if size < wire.MaxBlockHeaderPayload || off+recordPreamble+int64(size) > info.Size() {
			break
		}

		if err := readFileAt(f, s.key, head, off+recordPreamble); err != nil {
			return fmt.Errorf("read header in %s at %d: %w", name, off, err)
		}
		var hdr wire.BlockHeader
		if err := hdr.Deserialize(bytes.NewReader(head)); err != nil {
			return fmt.Errorf("decode header in %s at %d: %w", name, off, err)
		}
		hash := hdr.BlockHash()
		if _, seen := s.headers[hash]; !seen {
			s.headers[hash] = header{
				prev: hdr.PrevBlock,
				loc:  location{file: name, offset: off + recordPreamble, size: size},
			}
			s.order = append(s.order, hash)
		}
		off += recordPreamble + int64(size)
	}
	s.scanned[name] = off
	return nil
}

// rebuildLocked selects the longest chain rooted at genesis. Among equally
// long chains the tip indexed first wins.
func (s *BlockFileSource) rebuildLocked() {
	s.best = s.best[:0]
	if _, ok := s.headers[s.genesis]; !ok {
		return
	}

	heights := map[chainhash.Hash]int64{s.genesis: 0}
	tip, tipHeight := s.genesis, int64(0)
	var stack []chainhash.Hash
	for _, h := range s.order {
		stack = stack[:0]
		cur, base := h, int64(-1)
		for {
			if height, ok := heights[cur]; ok {
				base = height
				break
			}
			hdr, ok := s.headers[cur]
			if !ok {
				break
			}
			stack = append(stack, cur)
			cur = hdr.prev
		}
		for i := len(stack) - 1; i >= 0; i-- {
			if base >= 0 {
				base++
			}
			heights[stack[i]] = base
		}
		if height := heights[h]; height > tipHeight {
			tip, tipHeight = h, height
		}
	}

	best := make([]chainhash.Hash, tipHeight+1)
	for i, cur := tipHeight, tip; i >= 0; i-- {
		best[i] = cur
		cur = s.headers[cur].prev
	}
	s.best = best
}

func readAt(path string, key, buf []byte, off int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return readFileAt(f, key, buf, off)
}

// readFileAt fills buf from off, undoing the obfuscation key if there is one.
func readFileAt(f *os.File, key, buf []byte, off int64) error {
	if _, err := f.ReadAt(buf, off); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if n := int64(len(key)); n > 0 {
		for i := range buf {
			buf[i] ^= key[(off+int64(i))%n]
		}
	}
	return nil
}
