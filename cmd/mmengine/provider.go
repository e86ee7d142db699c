package main

import (
	"sync/atomic"

	"hftmm/internal/book"
	"hftmm/internal/pipeline"
	"hftmm/internal/risk"
	"hftmm/internal/venue"
	"hftmm/pkg/types"
)

// dashboardProvider pairs a running Pipeline with the latest venue.Health
// snapshot so the pair together satisfy api.SnapshotProvider — the
// pipeline owns the book/risk/order state, the health monitor owns
// connectivity, and neither needs to know about the other.
type dashboardProvider struct {
	pipeline *pipeline.Pipeline
	health   atomic.Pointer[[]venue.Health]
}

func newDashboardProvider(p *pipeline.Pipeline) *dashboardProvider {
	d := &dashboardProvider{pipeline: p}
	empty := []venue.Health{}
	d.health.Store(&empty)
	return d
}

// watchHealth drains results into d.health until done or results is closed,
// so HandleSnapshot/HandleWebSocket never block waiting on a health poll.
func (d *dashboardProvider) watchHealth(results <-chan []venue.Health, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case snapshot, ok := <-results:
			if !ok {
				return
			}
			d.health.Store(&snapshot)
		}
	}
}

func (d *dashboardProvider) Symbol() types.Symbol             { return d.pipeline.Symbol() }
func (d *dashboardProvider) Consolidated() *book.Consolidated { return d.pipeline.Consolidated() }
func (d *dashboardProvider) Gate() *risk.Gate                 { return d.pipeline.Gate() }
func (d *dashboardProvider) ActiveOrders() []types.Order      { return d.pipeline.ActiveOrders() }
func (d *dashboardProvider) VenueHealth() []venue.Health      { return *d.health.Load() }
