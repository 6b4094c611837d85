package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job はスケジュール実行される処理です。ctx は Stop で打ち切られます。
type Job func(ctx context.Context) error

// Options はスケジュールの設定です。
type Options struct {
	Name       string
	Spec       string
	Location   *time.Location
	RunOnStart bool
}

// Handle は起動済みスケジュールです。Stop で停止します。
type Handle struct {
	cron    *cron.Cron
	entryID cron.EntryID
	job     cron.Job
	logger  *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopOnce sync.Once
	stopErr  error
}

// Start は cron 式に従って job を登録し、スケジュールを開始します。
// 実行中の回が残っている間に次の回が来た場合、その回はスキップされます。
func Start(opts Options, job Job, logger *zap.Logger) (*Handle, error) {
	if job == nil {
		return nil, errors.New("scheduler: job is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = "job"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	schedule, err := cron.ParseStandard(opts.Spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse spec %q: %w", opts.Spec, err)
	}

	sugar := logger.Named("scheduler").Sugar().With("job", opts.Name)
	cl := cronLogger{logger: sugar}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		cron:   cron.New(cron.WithLocation(loc), cron.WithLogger(cl)),
		logger: sugar,
		ctx:    ctx,
		cancel: cancel,
	}

	h.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).Then(cron.FuncJob(func() {
		h.run(job)
	}))
	h.entryID = h.cron.Schedule(schedule, h.job)
	h.cron.Start()

	sugar.Infow("scheduler started", "spec", opts.Spec, "location", loc.String(), "next", h.Next())

	if opts.RunOnStart {
		h.fire()
	}

	return h, nil
}

func (h *Handle) run(job Job) {
	started := time.Now()
	if err := job(h.ctx); err != nil {
		h.logger.Errorw("scheduled run failed", "duration", time.Since(started), "error", err)
		return
	}
	h.logger.Infow("scheduled run completed", "duration", time.Since(started))
}

// fire は次回を待たずに一回実行します。重複実行の抑止はスケジュール実行と共有されます。
func (h *Handle) fire() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.job.Run()
	}()
}

// Next は次回の実行予定時刻を返します。
func (h *Handle) Next() time.Time {
	return h.cron.Entry(h.entryID).Next
}

// Stop は新しい実行の開始を止め、実行中の回の終了を待ちます。
// ctx が先に終わった場合は実行中の回にキャンセルを伝えて ctx のエラーを返します。
func (h *Handle) Stop(ctx context.Context) error {
	h.stopOnce.Do(func() {
		cronDone := h.cron.Stop()

		done := make(chan struct{})
		go func() {
			<-cronDone.Done()
			h.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			h.logger.Infow("scheduler stopped")
		case <-ctx.Done():
			h.cancel()
			<-done
			h.stopErr = fmt.Errorf("scheduler: stop: %w", ctx.Err())
			h.logger.Warnw("scheduler stopped before in-flight run finished", "error", ctx.Err())
		}
		h.cancel()
	})
	return h.stopErr
}

// cronLogger は cron.Logger を zap に橋渡しします。
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.logger.Warnw("skipped run because the previous run is still in progress", keysAndValues...)
		return
	}
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
