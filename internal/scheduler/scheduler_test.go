package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passionbot/internal/queue"
)

func TestInWindow(t *testing.T) {
	day := func(hour int) time.Time {
		return time.Date(2025, 6, 1, hour, 30, 0, 0, time.UTC)
	}

	assert.False(t, inWindow(day(8), 9, 21))
	assert.True(t, inWindow(day(9), 9, 21))
	assert.True(t, inWindow(day(20), 9, 21))
	assert.False(t, inWindow(day(21), 9, 21))
	assert.False(t, inWindow(day(23), 9, 21))
}

func TestUntilWindowStart_SameDayBeforeWindow(t *testing.T) {
	// 06:15, window 9-21: sleep must land exactly on 09:00 the same day.
	now := time.Date(2025, 6, 1, 6, 15, 0, 0, time.UTC)

	wait := untilWindowStart(now, 9, 21)

	assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), now.Add(wait))
}

func TestUntilWindowStart_NextDayAfterWindowEnd(t *testing.T) {
	// 22:40, window 9-21: next start is 09:00 tomorrow.
	now := time.Date(2025, 6, 1, 22, 40, 0, 0, time.UTC)

	wait := untilWindowStart(now, 9, 21)

	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), now.Add(wait))
}

func TestUntilNextHour(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 42, 7, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC), now.Add(untilNextHour(now)))
}

type fakeSender struct {
	photoErr   error
	messageErr error

	photos   []string
	messages []string
}

func (f *fakeSender) SendPhoto(_ context.Context, photoURL, _ string) error {
	f.photos = append(f.photos, photoURL)
	return f.photoErr
}

func (f *fakeSender) SendMessage(_ context.Context, text string) error {
	f.messages = append(f.messages, text)
	return f.messageErr
}

type recordingLedger struct {
	recorded  []string
	recordErr error
}

func (r *recordingLedger) Has(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (r *recordingLedger) Record(_ context.Context, _, _, link string) error {
	if r.recordErr != nil {
		return r.recordErr
	}
	r.recorded = append(r.recorded, link)
	return nil
}

type staticIngester struct{ counts []int }

func (s *staticIngester) Ingest(_ context.Context, _ int) int {
	if len(s.counts) == 0 {
		return 0
	}
	n := s.counts[0]
	s.counts = s.counts[1:]
	return n
}

func newTestScheduler(sender Sender, led *recordingLedger) (*Scheduler, *queue.Queue) {
	q := queue.New()
	cfg := Config{
		WindowStartHour: 9,
		WindowEndHour:   21,
		PublishPerCycle: 2,
		IngestLimit:     2,
		PauseMin:        time.Millisecond,
		PauseMax:        2 * time.Millisecond,
		EmptyBackoff:    time.Millisecond,
		Hashtag:         "#новости",
	}
	s := New(cfg, &staticIngester{}, q, led, sender, slog.Default())
	return s, q
}

func item(link string) queue.Item {
	return queue.Item{
		ID:       "id-" + link,
		Title:    "Заголовок",
		Link:     link,
		Content:  "Текст новости.",
		ImageURL: "https://site.example/img.jpg",
	}
}

func TestRelease_SuccessfulPhotoDeliveryIsRecorded(t *testing.T) {
	sender := &fakeSender{}
	led := &recordingLedger{}
	s, _ := newTestScheduler(sender, led)

	s.release(context.Background(), item("https://site.example/news/a/"))

	require.Len(t, sender.photos, 1)
	assert.Empty(t, sender.messages)
	assert.Equal(t, []string{"https://site.example/news/a/"}, led.recorded)
}

func TestRelease_PhotoFailureFallsBackToText(t *testing.T) {
	sender := &fakeSender{photoErr: errors.New("image rejected")}
	led := &recordingLedger{}
	s, _ := newTestScheduler(sender, led)

	s.release(context.Background(), item("https://site.example/news/b/"))

	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "<b>Заголовок</b>")
	assert.Contains(t, sender.messages[0], "#новости")
	// Posted means attempted: the record is written either way.
	assert.Equal(t, []string{"https://site.example/news/b/"}, led.recorded)
}

func TestRelease_TotalDeliveryFailureStillRecorded(t *testing.T) {
	sender := &fakeSender{photoErr: errors.New("nope"), messageErr: errors.New("nope")}
	led := &recordingLedger{}
	s, _ := newTestScheduler(sender, led)

	s.release(context.Background(), item("https://site.example/news/c/"))

	assert.Equal(t, []string{"https://site.example/news/c/"}, led.recorded)
}

func TestRelease_LedgerFailureDoesNotPanic(t *testing.T) {
	sender := &fakeSender{}
	led := &recordingLedger{recordErr: errors.New("db down")}
	s, _ := newTestScheduler(sender, led)

	s.release(context.Background(), item("https://site.example/news/d/"))

	require.Len(t, sender.photos, 1)
	assert.Empty(t, led.recorded)
}

func TestPublishCycle_ReleasesInFIFOOrderUpToLimit(t *testing.T) {
	sender := &fakeSender{photoErr: errors.New("force text so we capture captions")}
	led := &recordingLedger{}
	s, q := newTestScheduler(sender, led)

	q.Push(queue.Item{ID: "1", Title: "Первая", Link: "l1", Content: "a", ImageURL: "i"})
	q.Push(queue.Item{ID: "2", Title: "Вторая", Link: "l2", Content: "b", ImageURL: "i"})
	q.Push(queue.Item{ID: "3", Title: "Третья", Link: "l3", Content: "c", ImageURL: "i"})

	require.NoError(t, s.publishCycle(context.Background()))

	assert.Equal(t, []string{"l1", "l2"}, led.recorded)
	assert.Equal(t, 1, q.Len())
	require.Len(t, sender.messages, 2)
	assert.Contains(t, sender.messages[0], "Первая")
	assert.Contains(t, sender.messages[1], "Вторая")
}

func TestPublishCycle_StopsWhenQueueDrains(t *testing.T) {
	sender := &fakeSender{}
	led := &recordingLedger{}
	s, q := newTestScheduler(sender, led)

	q.Push(queue.Item{ID: "1", Title: "Единственная", Link: "l1", Content: "a", ImageURL: "i"})

	require.NoError(t, s.publishCycle(context.Background()))

	assert.Equal(t, []string{"l1"}, led.recorded)
	assert.Equal(t, 0, q.Len())
}

func TestFillQueue_StopsWhenWindowClosesDuringBackoff(t *testing.T) {
	sender := &fakeSender{}
	led := &recordingLedger{}
	s, _ := newTestScheduler(sender, led)
	s.ingest = &staticIngester{} // always zero items

	// Clock jumps past the window end after the first backoff sleep.
	times := []time.Time{
		time.Date(2025, 6, 1, 20, 59, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 21, 1, 0, 0, time.UTC),
	}
	s.now = func() time.Time {
		head := times[0]
		if len(times) > 1 {
			times = times[1:]
		}
		return head
	}

	filled, err := s.fillQueue(context.Background())

	require.NoError(t, err)
	assert.False(t, filled)
	assert.Equal(t, StateWaitingForContent, s.State())
}

func TestFillQueue_ReturnsOnceContentArrives(t *testing.T) {
	sender := &fakeSender{}
	led := &recordingLedger{}
	s, _ := newTestScheduler(sender, led)
	s.ingest = &staticIngester{counts: []int{0, 2}}
	s.now = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}

	filled, err := s.fillQueue(context.Background())

	require.NoError(t, err)
	assert.True(t, filled)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	sender := &fakeSender{}
	led := &recordingLedger{}
	s, _ := newTestScheduler(sender, led)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
