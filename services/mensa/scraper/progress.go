package scraper

import (
	"io"
	"mensa-scraper/lib/timezone"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// TrackerProgress renders a progress bar over the days of a run.
type TrackerProgress struct {
	writer  progress.Writer
	tracker *progress.Tracker
}

func NewTrackerProgress(out io.Writer) *TrackerProgress {
	pw := progress.NewWriter()
	pw.SetOutputWriter(out)
	pw.SetAutoStop(true)
	pw.SetTrackerLength(30)
	pw.SetStyle(progress.StyleDefault)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(time.Millisecond * 100)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Time = true
	pw.Style().Visibility.Value = true
	return &TrackerProgress{writer: pw}
}

func (p *TrackerProgress) Start(days int) {
	p.tracker = &progress.Tracker{
		Message: "Scraping",
		Total:   int64(days),
		Units:   progress.UnitsDefault,
	}
	p.writer.AppendTracker(p.tracker)
	go p.writer.Render()
}

func (p *TrackerProgress) Increment(day time.Time) {
	if p.tracker == nil {
		return
	}
	p.tracker.UpdateMessage("Scraping " + timezone.FormatDate(day))
	p.tracker.Increment(1)
}

// Done marks the run as finished and waits for the last frame to be drawn.
func (p *TrackerProgress) Done() {
	if p.tracker == nil {
		return
	}
	p.tracker.MarkAsDone()
	// the writer stops on its own once every tracker is done, wait for
	// it to draw the final frame
	time.Sleep(time.Millisecond * 150)
	for p.writer.IsRenderInProgress() {
		time.Sleep(time.Millisecond * 10)
	}
}
