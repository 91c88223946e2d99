// README: Bench cases for the parking API; covers env, migrations, pricing, ticket lifecycle, reports and load.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/http/middleware"
	"github.com/deepanshuvermaa/Go2-ParkingSoftware/internal/infra"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg    Config
	httpc  *http.Client
	db     *pgxpool.Pool
	redis  *redis.Client
	tokens map[string]string

	// ticketID is set by the check-in case and read by the lifecycle cases after it.
	ticketID string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) (*Runner, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required (PARKING_JWT_SECRET or -jwt-secret)")
	}
	r := &Runner{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: 10 * time.Second},
		tokens: map[string]string{},
	}
	for _, role := range []string{middleware.RoleOwner, middleware.RoleManager, middleware.RoleAttendant} {
		loc := ""
		if role == middleware.RoleAttendant {
			loc = cfg.LocationID
		}
		tok, err := middleware.IssueToken([]byte(cfg.JWTSecret), "bench-"+role, role, loc, cfg.Timeout+time.Minute)
		if err != nil {
			return nil, err
		}
		r.tokens[role] = tok
	}
	return r, nil
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := infra.NewDB(ctx, r.cfg.DSN, int32(r.cfg.Concurrency)); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = infra.NewRedis(r.cfg.RedisAddr, os.Getenv("PARKING_REDIS_PASSWORD"), 0)
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	loc := r.cfg.LocationID
	// Seeded plans take effect when the bench seeds them, so stays start now and end in the future.
	quote := func() map[string]any {
		entry := time.Now().UTC()
		return map[string]any{"location_id": loc, "vehicle_type": "CAR", "entry_time": entry, "exit_time": entry.Add(2*time.Hour + 30*time.Minute)}
	}

	return []TestCase{
		{"Env: Postgres connect", func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: statusFail, Note: "db not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.db.Ping(ctx); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{"Env: Redis connect", func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: statusFail, Note: "redis not configured"}
			}
			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := r.redis.Ping(ctx).Err(); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{"Migration: apply (optional)", func(ctx context.Context, r *Runner) Result {
			if !r.cfg.ApplyMigration {
				return Result{Status: statusSkip, Note: "apply-migration=false"}
			}
			if r.db == nil {
				return Result{Status: statusFail, Note: "db not configured"}
			}
			if err := infra.ApplyMigrations(ctx, r.db, r.cfg.MigrationsDir); err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return Result{Status: statusPass}
		}},
		{"Migration: tables exist", func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: statusFail, Note: "db not configured"}
			}
			tables, err := extractTables(r.cfg.MigrationsDir)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			for _, t := range tables {
				var exists bool
				err := r.db.QueryRow(ctx,
					"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)", t,
				).Scan(&exists)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if !exists {
					return Result{Status: statusFail, Note: "missing table: " + t}
				}
			}
			return Result{Status: statusPass, Note: fmt.Sprintf("%d tables", len(tables))}
		}},
		{"API: health", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/health", "", nil, http.StatusOK)
		}},
		{"Auth: missing token -> 401", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/v1/rate-plans?locationId="+loc, "", nil, http.StatusUnauthorized)
		}},

		// Rate plans
		{"RatePlan: attendant cannot seed defaults", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPost, "/api/v1/locations/"+loc+"/rate-plans/defaults", middleware.RoleAttendant, nil, http.StatusForbidden)
		}},
		{"RatePlan: manager seeds defaults", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPost, "/api/v1/locations/"+loc+"/rate-plans/defaults", middleware.RoleManager, nil, http.StatusCreated)
		}},
		{"RatePlan: list active", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/v1/rate-plans?locationId="+loc, middleware.RoleAttendant, nil, http.StatusOK)
		}},

		// Pricing
		{"Pricing: quote 2h30m car", func(ctx context.Context, r *Runner) Result {
			res, body := r.call(ctx, http.MethodPost, "/api/v1/quotes", middleware.RoleAttendant, quote(), http.StatusOK)
			if res.Status == statusPass {
				res.Note = fmt.Sprintf("total=%v", body["total_amount"])
			}
			return res
		}},
		{"Pricing: exit before entry -> 400", func(ctx context.Context, r *Runner) Result {
			entry := time.Now().UTC()
			return r.expect(ctx, http.MethodPost, "/api/v1/quotes", middleware.RoleAttendant, map[string]any{
				"location_id": loc, "vehicle_type": "CAR", "entry_time": entry, "exit_time": entry.Add(-time.Hour),
			}, http.StatusBadRequest)
		}},
		{"Pricing: unknown location -> 404", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPost, "/api/v1/quotes", middleware.RoleOwner, map[string]any{
				"location_id": loc + "-missing", "vehicle_type": "CAR", "entry_time": time.Now().UTC(),
			}, http.StatusNotFound)
		}},
		{"Pricing: calculate 90 minutes", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/v1/calculate/"+loc+"?vehicleType=CAR&duration=90", middleware.RoleAttendant, nil, http.StatusOK)
		}},
		{"Pricing: lost ticket fee", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/v1/lost-ticket-fee/"+loc+"?vehicleType=CAR", middleware.RoleAttendant, nil, http.StatusOK)
		}},
		{"Cache: plan lookup cached in redis", func(ctx context.Context, r *Runner) Result {
			if r.redis == nil {
				return Result{Status: statusSkip, Note: "redis not configured"}
			}
			n, err := r.redis.Exists(ctx, "parking:rateplan:"+loc+":CAR").Result()
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if n == 0 {
				return Result{Status: statusFail, Note: "no cache entry after quote"}
			}
			return Result{Status: statusPass}
		}},

		// Ticket lifecycle
		{"Ticket: check in", func(ctx context.Context, r *Runner) Result {
			res, body := r.call(ctx, http.MethodPost, "/api/v1/tickets", middleware.RoleAttendant, map[string]any{
				"vehicle_number": "BENCH 0001", "vehicle_type": "CAR",
			}, http.StatusCreated)
			if id, ok := body["id"].(string); ok {
				r.ticketID = id
				res.Note = fmt.Sprintf("number=%v", body["ticket_number"])
			}
			return res
		}},
		{"Ticket: duplicate plate -> 409", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodPost, "/api/v1/tickets", middleware.RoleAttendant, map[string]any{
				"vehicle_number": "bench0001", "vehicle_type": "CAR",
			}, http.StatusConflict)
		}},
		{"Ticket: amount due", func(ctx context.Context, r *Runner) Result {
			if r.ticketID == "" {
				return Result{Status: statusSkip, Note: "no ticket"}
			}
			return r.expect(ctx, http.MethodGet, "/api/v1/tickets/"+r.ticketID+"/amount-due", middleware.RoleAttendant, nil, http.StatusOK)
		}},
		{"Ticket: checkout", func(ctx context.Context, r *Runner) Result {
			if r.ticketID == "" {
				return Result{Status: statusSkip, Note: "no ticket"}
			}
			return r.expect(ctx, http.MethodPost, "/api/v1/tickets/"+r.ticketID+"/checkout", middleware.RoleAttendant,
				map[string]any{"payment_method": "CARD"}, http.StatusOK)
		}},
		{"Ticket: paid ticket cannot be cancelled", func(ctx context.Context, r *Runner) Result {
			if r.ticketID == "" {
				return Result{Status: statusSkip, Note: "no ticket"}
			}
			return r.expect(ctx, http.MethodPost, "/api/v1/tickets/"+r.ticketID+"/cancel", middleware.RoleAttendant,
				map[string]any{"reason": "bench"}, http.StatusConflict)
		}},
		{"Consistency: status_version advanced once", func(ctx context.Context, r *Runner) Result {
			if r.db == nil || r.ticketID == "" {
				return Result{Status: statusSkip, Note: "needs db and ticket"}
			}
			var status string
			var version int
			err := r.db.QueryRow(ctx, `SELECT status, status_version FROM tickets WHERE id = $1`, r.ticketID).Scan(&status, &version)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if status != "PAID" || version != 1 {
				return Result{Status: statusFail, Note: fmt.Sprintf("status=%s version=%d", status, version)}
			}
			return Result{Status: statusPass}
		}},
		{"Concurrency: checkout same ticket", func(ctx context.Context, r *Runner) Result {
			return concurrentCheckout(ctx, r)
		}},

		// Reports
		{"Report: summary", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/v1/reports/summary", middleware.RoleAttendant, nil, http.StatusOK)
		}},
		{"Report: revenue needs a manager", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/v1/reports/revenue?locationId="+loc, middleware.RoleAttendant, nil, http.StatusForbidden)
		}},
		{"Report: revenue by hour", func(ctx context.Context, r *Runner) Result {
			return r.expect(ctx, http.MethodGet, "/api/v1/reports/revenue?groupBy=hour&locationId="+loc, middleware.RoleManager, nil, http.StatusOK)
		}},

		// Performance
		{"Perf: quote throughput", func(ctx context.Context, r *Runner) Result {
			return perfLoad(ctx, r, "/api/v1/quotes", quote())
		}},
	}
}

// call sends one request as role ("" sends no token) and decodes an object body when present.
func (r *Runner) call(ctx context.Context, method, path, role string, body any, want int) (Result, map[string]any) {
	req, err := r.newRequest(ctx, method, path, role, body)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}, nil
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}, nil
	}
	defer resp.Body.Close()
	latency := time.Since(start)

	raw, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode != want {
		return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d want=%d body=%s", resp.StatusCode, want, truncate(raw, 160))}, decoded
	}
	return Result{Status: statusPass, Latency: latency}, decoded
}

func (r *Runner) expect(ctx context.Context, method, path, role string, body any, want int) Result {
	res, _ := r.call(ctx, method, path, role, body, want)
	return res
}

func (r *Runner) newRequest(ctx context.Context, method, path, role string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+r.tokens[role])
	}
	return req, nil
}

func concurrentCheckout(ctx context.Context, r *Runner) Result {
	res, body := r.call(ctx, http.MethodPost, "/api/v1/tickets", middleware.RoleAttendant, map[string]any{
		"vehicle_number": "BENCH 0002", "vehicle_type": "CAR",
	}, http.StatusCreated)
	id, _ := body["id"].(string)
	if res.Status != statusPass || id == "" {
		return Result{Status: statusFail, Note: "check in failed: " + res.Note}
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succ, hit int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := r.newRequest(ctx, http.MethodPost, "/api/v1/tickets/"+id+"/checkout", middleware.RoleAttendant, map[string]any{"payment_method": "CASH"})
			if err != nil {
				return
			}
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			mu.Lock()
			hit++
			if resp.StatusCode == http.StatusOK {
				succ++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if succ == 1 {
		return Result{Status: statusPass, Note: fmt.Sprintf("success=1 of %d", hit)}
	}
	return Result{Status: statusFail, Note: fmt.Sprintf("success=%d of %d", succ, hit)}
}

func perfLoad(ctx context.Context, r *Runner, path string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var (
		count, errCount int64
		mu              sync.Mutex
		wg              sync.WaitGroup
	)

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, err := r.newRequest(ctx, http.MethodPost, path, middleware.RoleAttendant, payload)
				if err != nil {
					return
				}
				resp, err := r.httpc.Do(req)
				mu.Lock()
				if err != nil || resp.StatusCode != http.StatusOK {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
				if err == nil {
					_, _ = io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func extractTables(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	var tables []string
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		for _, m := range re.FindAllStringSubmatch(string(b), -1) {
			tables = append(tables, m[1])
		}
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables declared in %s", dir)
	}
	return tables, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
