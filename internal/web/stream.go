package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// handleValuationStream pushes journaled valuation snapshots as server-sent events.
// The after query parameter resumes the stream past a known journal index.
func (s *Server) handleValuationStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	lastIndex := uint64(0)
	if after := r.URL.Query().Get("after"); after != "" {
		idx, err := strconv.ParseUint(after, 10, 64)
		if err != nil {
			http.Error(w, "after must be a journal index", http.StatusBadRequest)
			return
		}
		lastIndex = idx
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeat so proxies keep the connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(s.pollInterval)
	defer pollTicker.Stop()

	generation := s.trader.JournalGeneration()

	sendValuations := func() error {
		// the journal restarts from zero after a reset
		if gen := s.trader.JournalGeneration(); gen != generation {
			generation = gen
			lastIndex = 0
		} else if s.trader.JournalIndex() < lastIndex {
			lastIndex = 0
		}
		records, err := s.trader.ValuationsAfter(lastIndex)
		if err != nil {
			return err
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Snapshot)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %d\n", record.Index)
			fmt.Fprintf(w, "event: valuation\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			lastIndex = record.Index
		}
		flusher.Flush()
		return nil
	}

	if err := sendValuations(); err != nil {
		s.logger.Error("valuation stream initial load", zap.Error(err))
		http.Error(w, "failed to load valuations", http.StatusInternalServerError)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendValuations(); err != nil {
				s.logger.Warn("valuation stream poll", zap.Error(err))
			}
		}
	}
}
