package search

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// resultCache is a short-TTL advisory cache for search responses. Staleness
// within the TTL window after a record update is acceptable. The key always
// includes the tenant scope so an entry can never serve across tenants.
type resultCache struct {
	lru *expirable.LRU[string, *Response]
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	return &resultCache{
		lru: expirable.NewLRU[string, *Response](size, nil, ttl),
	}
}

func cacheKey(req Request) string {
	return fmt.Sprintf("%s|%s|%s|%d|%s",
		req.TenantID, req.Mode, req.Query, req.Limit, canonicalFilterKey(req.Filters))
}

func (s *Searcher) cacheGet(req Request) (*Response, bool) {
	if s.cache == nil {
		return nil, false
	}
	resp, ok := s.cache.lru.Get(cacheKey(req))
	if !ok {
		return nil, false
	}
	// Copy so callers cannot mutate the cached slice.
	out := *resp
	out.Results = append([]Result(nil), resp.Results...)
	return &out, true
}

func (s *Searcher) cachePut(req Request, resp *Response) {
	if s.cache == nil || resp == nil {
		return
	}
	stored := *resp
	stored.Results = append([]Result(nil), resp.Results...)
	s.cache.lru.Add(cacheKey(req), &stored)
}
