package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mattn/go-isatty"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quizroom/internal/app"
	"quizroom/internal/config"
	"quizroom/internal/infra/file"
	"quizroom/internal/infra/memory"
	pgloader "quizroom/internal/infra/postgres"
	infraredis "quizroom/internal/infra/redis"
	transport "quizroom/internal/transport/http"
)

// runtime holds everything a command needs. Connections are opened lazily so
// commands like whoami never touch Redis or Postgres unless configured to.
type runtime struct {
	cfg config.Config
	in  *prompter
	out io.Writer

	notifier app.Notifier
	client   *app.Client
	redis    *redis.Client
	pool     *pgxpool.Pool
	closers  []func() error
}

func (rt *runtime) init(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	setupLogging(cfg)
	if rt.notifier == nil {
		rt.notifier = newTerminalNotifier(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()))
	}
	return nil
}

func setupLogging(cfg config.Config) {
	if cfg.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// App builds the view client on first use.
func (rt *runtime) App(ctx context.Context) (*app.Client, error) {
	if rt.client != nil {
		return rt.client, nil
	}
	store, err := rt.sessionStore()
	if err != nil {
		return nil, err
	}
	session := app.NewSessionContext(store)
	api := transport.NewClient(rt.cfg.API.BaseURL, session,
		transport.WithTimeout(config.Duration(rt.cfg.API.Timeout, 30*time.Second)))

	opts := []app.Option{app.WithTiming(rt.timing())}
	if rt.cfg.Stream.Enabled && rt.cfg.Stream.URL != "" {
		opts = append(opts, app.WithStream(transport.NewStream(rt.cfg.Stream.URL, session)))
	}
	rt.client = app.NewClient(api, session, rt.notifier, opts...)
	return rt.client, nil
}

func (rt *runtime) timing() app.Timing {
	def := app.DefaultTiming()
	p, d := rt.cfg.Polling, rt.cfg.Delays
	def.RoomMembers = config.Duration(p.RoomMembers, def.RoomMembers)
	def.GameStatus = config.Duration(p.GameStatus, def.GameStatus)
	def.ManageMembers = config.Duration(p.ManageMembers, def.ManageMembers)
	def.Leaderboard = config.Duration(p.Leaderboard, def.Leaderboard)
	def.LeaderboardManage = config.Duration(p.LeaderboardManage, def.LeaderboardManage)
	def.ExitRedirect = config.Duration(d.ExitRedirect, def.ExitRedirect)
	def.Reload = config.Duration(d.Reload, def.Reload)
	def.DeleteRedirect = config.Duration(d.DeleteRedirect, def.DeleteRedirect)
	def.AnswerError = config.Duration(d.AnswerError, def.AnswerError)
	return def
}

func (rt *runtime) sessionStore() (app.SessionStore, error) {
	switch rt.cfg.Session.Backend {
	case config.SessionMemory:
		return memory.NewSessionStore(), nil
	case config.SessionRedis:
		client := rt.redisClient()
		if client == nil {
			return nil, errors.New("redis not configured")
		}
		return infraredis.NewSessionStore(client, rt.cfg.Session.Profile, config.Duration(rt.cfg.Session.TTL, 0)), nil
	default:
		log.Debug().Str("path", rt.cfg.Session.Path).Msg("file session store")
		return file.NewSessionStore(rt.cfg.Session.Path), nil
	}
}

func (rt *runtime) redisClient() *redis.Client {
	if rt.redis != nil || rt.cfg.Redis.Addr == "" {
		return rt.redis
	}
	rt.redis = redis.NewClient(&redis.Options{
		Addr:     rt.cfg.Redis.Addr,
		Password: rt.cfg.Redis.Password,
		DB:       rt.cfg.Redis.DB,
	})
	rt.closers = append(rt.closers, rt.redis.Close)
	return rt.redis
}

func (rt *runtime) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if rt.pool != nil {
		return rt.pool, nil
	}
	if rt.cfg.Postgres.URL == "" {
		return nil, nil
	}
	pool, err := pgxpool.Connect(ctx, rt.cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	rt.pool = pool
	rt.closers = append(rt.closers, func() error { pool.Close(); return nil })
	return pool, nil
}

// QuestionSets picks the library loader (Postgres or built-in) and the cache
// in front of it (Redis or memory).
func (rt *runtime) QuestionSets(ctx context.Context) (app.QuestionSetRepository, error) {
	pool, err := rt.postgres(ctx)
	if err != nil {
		return nil, err
	}
	var loader memory.QuestionSetLoader = memory.NewStaticQuestionSetLoader(builtinQuestionSets())
	if pool != nil {
		loader = pgloader.NewQuestionSetLoader(pool)
	}

	ttl := config.Duration(rt.cfg.Library.TTL, 10*time.Minute)
	if client := rt.redisClient(); client != nil {
		return infraredis.NewQuestionSetRepository(client, loader, ttl), nil
	}
	return memory.NewQuestionSetRepository(loader, ttl), nil
}

func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
