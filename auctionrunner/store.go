package auctionrunner

import (
	"encoding/json"
	"sync"

	"github.com/openprocurement/auction-worker/auctiontypes"
)

// MemoryStore is an in-process DocumentStore. Documents are stored and
// returned as copies, the way a remote store would behave, so callers
// never alias the persisted state. Real persistence engines are a
// deployment concern plugged in behind the same interface.
type MemoryStore struct {
	lock sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string][]byte{}}
}

func (s *MemoryStore) Get(id string) (*auctiontypes.AuctionDocument, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	raw, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	doc := &auctiontypes.AuctionDocument{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *MemoryStore) Save(doc *auctiontypes.AuctionDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.docs[doc.ID] = raw
	return nil
}
