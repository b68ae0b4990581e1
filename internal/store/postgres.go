package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"ispnet/internal/geo"
	"ispnet/internal/model"
)

type Postgres struct {
	db  *sql.DB
	log *zap.Logger
}

func NewPostgres(dsn string, log *zap.Logger) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Postgres{db: db, log: log}, nil
}

// Ping checks database connectivity (used by /readyz).
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

// MigrateDir applies every *.sql file in dir in lexical order. Migrations
// are written to be idempotent (IF NOT EXISTS), so re-running is safe.
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := p.db.Exec(string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
		p.log.Info("migration applied", zap.String("file", f))
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const (
	nodesSQL = `SELECT id::text, name, kind, status, lat, lng, metadata FROM nodes WHERE tenant_id=$1 ORDER BY id`
	linksSQL = `SELECT id::text, from_node_id::text, to_node_id::text, name, kind, status, priority, capacity_mbps,
        utilization_pct, signal_loss_db, latency_ms, path
        FROM links WHERE tenant_id=$1 ORDER BY id`
)

func (p *Postgres) ListNodes(ctx context.Context, tenantID string) ([]model.Node, error) {
	return p.listNodes(ctx, p.db, tenantID)
}

func (p *Postgres) ListLinks(ctx context.Context, tenantID string) ([]model.Link, error) {
	return p.listLinks(ctx, p.db, tenantID)
}

// ReadTopology reads nodes and links inside one read-only repeatable-read
// transaction so a link never pairs with a node set from another moment.
func (p *Postgres) ReadTopology(ctx context.Context, tenantID string) ([]model.Node, []model.Link, error) {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()
	nodes, err := p.listNodes(ctx, tx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	links, err := p.listLinks(ctx, tx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return nodes, links, nil
}

func (p *Postgres) listNodes(ctx context.Context, q queryer, tenantID string) ([]model.Node, error) {
	rows, err := q.QueryContext(ctx, nodesSQL, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Node{}
	for rows.Next() {
		var n model.Node
		var name, kind sql.NullString
		var lat, lng sql.NullFloat64
		var meta []byte
		if err := rows.Scan(&n.ID, &name, &kind, &n.Status, &lat, &lng, &meta); err != nil {
			return nil, err
		}
		n.TenantID = tenantID
		n.Name, n.Kind = name.String, kind.String
		if lat.Valid && lng.Valid {
			pt := geo.Point{Lat: lat.Float64, Lng: lng.Float64}
			if pt.Valid() {
				n.Location = &pt
			} else {
				p.log.Warn("node location out of range", zap.String("tenant", tenantID), zap.String("node", n.ID))
			}
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &n.Metadata); err != nil {
				p.log.Warn("node metadata ignored", zap.String("node", n.ID), zap.Error(err))
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (p *Postgres) listLinks(ctx context.Context, q queryer, tenantID string) ([]model.Link, error) {
	rows, err := q.QueryContext(ctx, linksSQL, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Link{}
	for rows.Next() {
		var l model.Link
		var name, kind sql.NullString
		var util, loss, latency sql.NullFloat64
		var path []byte
		if err := rows.Scan(&l.ID, &l.FromNodeID, &l.ToNodeID, &name, &kind, &l.Status, &l.Priority, &l.CapacityMbps, &util, &loss, &latency, &path); err != nil {
			return nil, err
		}
		l.TenantID = tenantID
		l.Name, l.Kind = name.String, kind.String
		l.UtilizationPct = nullFloat(util)
		l.SignalLossDB = nullFloat(loss)
		l.LatencyMs = nullFloat(latency)
		if len(path) > 0 {
			pl, err := geo.DecodePolyline(path)
			if err != nil {
				// fall back to the straight line between endpoints
				p.log.Warn("link path ignored", zap.String("tenant", tenantID), zap.String("link", l.ID), zap.Error(err))
			} else {
				l.Path = pl
			}
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (p *Postgres) ListActiveZones(ctx context.Context, tenantID string) ([]model.ServiceZone, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, name, kind, priority, status, geometry FROM service_zones WHERE tenant_id=$1 AND status='active' ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ServiceZone{}
	for rows.Next() {
		var z model.ServiceZone
		var name, kind sql.NullString
		var raw []byte
		if err := rows.Scan(&z.ID, &name, &kind, &z.Priority, &z.Status, &raw); err != nil {
			return nil, err
		}
		z.TenantID = tenantID
		z.Name, z.Kind = name.String, kind.String
		mp, err := geo.DecodeMultiPolygon(raw)
		if err != nil {
			p.log.Warn("zone geometry malformed, zone skipped", zap.String("tenant", tenantID), zap.String("zone", z.ID), zap.Error(err))
			continue
		}
		z.Geometry = mp
		out = append(out, z)
	}
	return out, rows.Err()
}

func (p *Postgres) ListActiveOffers(ctx context.Context, tenantID, zoneID string) ([]model.ZoneOffer, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT o.id::text, o.zone_id::text, o.package_id::text, o.price_override, o.setup_fee_override, o.active,
        pk.name, pk.download_mbps, pk.upload_mbps, pk.monthly_price, pk.setup_fee
        FROM zone_offers o JOIN packages pk ON pk.id = o.package_id AND pk.tenant_id = o.tenant_id
        WHERE o.tenant_id=$1 AND o.zone_id=$2 AND o.active ORDER BY o.id`, tenantID, zoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ZoneOffer{}
	for rows.Next() {
		var o model.ZoneOffer
		var price, fee sql.NullFloat64
		if err := rows.Scan(&o.ID, &o.ZoneID, &o.PackageID, &price, &fee, &o.Active,
			&o.Package.Name, &o.Package.DownloadMbps, &o.Package.UploadMbps, &o.Package.MonthlyPrice, &o.Package.SetupFee); err != nil {
			return nil, err
		}
		o.Package.ID = o.PackageID
		o.PriceOverride = nullFloat(price)
		o.SetupFeeOverride = nullFloat(fee)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListZoneBindings returns the nodes bound to zoneID; ErrNotFound when the
// tenant has no such zone. Ids compare as text so a malformed id is simply
// unknown instead of a uuid cast error.
func (p *Postgres) ListZoneBindings(ctx context.Context, tenantID, zoneID string) ([]model.ZoneNodeBinding, error) {
	var exists bool
	if err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM service_zones WHERE tenant_id=$1 AND id::text=$2)`, tenantID, zoneID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("zone %s: %w", zoneID, ErrNotFound)
	}
	rows, err := p.db.QueryContext(ctx, `SELECT zone_id::text, node_id::text, is_primary, weight FROM zone_node_bindings
        WHERE tenant_id=$1 AND zone_id::text=$2 ORDER BY is_primary DESC, weight DESC, node_id::text`, tenantID, zoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ZoneNodeBinding{}
	for rows.Next() {
		var b model.ZoneNodeBinding
		if err := rows.Scan(&b.ZoneID, &b.NodeID, &b.Primary, &b.Weight); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Helpers
func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
