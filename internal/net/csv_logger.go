package net

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// EpochMetric is an extra column of the training log, computed from the
// network at the end of every epoch.
type EpochMetric struct {
	Name string
	Eval func(n *Network) float64
}

// ValidationLoss reports the network's mean loss over ds.
func ValidationLoss(ds *Dataset) EpochMetric {
	return EpochMetric{
		Name: "val_loss",
		Eval: func(n *Network) float64 { return n.Evaluate(ds.X, ds.Y) },
	}
}

// CSVLogger logs training progress to a CSV file.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool
	Metrics  []EpochMetric

	file   *os.File
	writer *csv.Writer
	start  time.Time
}

// NewCSVLogger creates a new CSVLogger writing one column per metric after
// the standard ones.
func NewCSVLogger(filename string, appendMode bool, metrics ...EpochMetric) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   appendMode,
		Metrics:  metrics,
	}
}

func (c *CSVLogger) OnTrainBegin(*Network) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0o644)
	if err != nil {
		slog.Error("csv logger: open failed", "file", c.Filename, "error", err)
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		header := []string{"epoch", "loss", "learning_rate", "time_seconds"}
		for _, m := range c.Metrics {
			header = append(header, m.Name)
		}
		c.writer.Write(header)
		c.writer.Flush()
	}
}

func (c *CSVLogger) OnEpochEnd(epoch int, loss float64, n *Network) {
	if c.writer == nil {
		return
	}

	record := []string{
		strconv.Itoa(epoch),
		fmt.Sprintf("%.6f", loss),
		strconv.FormatFloat(n.Optimizer().LearningRate(), 'g', -1, 64),
		fmt.Sprintf("%.2f", time.Since(c.start).Seconds()),
	}
	for _, m := range c.Metrics {
		record = append(record, fmt.Sprintf("%.6f", m.Eval(n)))
	}
	if err := c.writer.Write(record); err != nil {
		slog.Error("csv logger: write failed", "file", c.Filename, "error", err)
	}
	c.writer.Flush()
}

func (c *CSVLogger) OnTrainEnd(*Network) {
	if c.file != nil {
		c.writer.Flush()
		c.file.Close()
		c.file = nil
		c.writer = nil
	}
}
