package train

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// ClassMetrics are the precision, recall and F1 of one class, with the number
// of true samples of that class.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation summarises classifier quality on a labelled set.
type Evaluation struct {
	Threshold float64 `json:"threshold"`

	// Confusion matrix with fraud as the positive class.
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`

	Accuracy float64      `json:"accuracy"`
	Legit    ClassMetrics `json:"legit"`
	Fraud    ClassMetrics `json:"fraud"`
	AUC      float64      `json:"roc_auc"`

	// Loss is the network loss averaged over the evaluated rows, set by Run.
	Loss float64 `json:"loss,omitempty"`
}

// Evaluate scores probs against labels (0 or 1). A probability above
// threshold predicts fraud.
func Evaluate(probs, labels []float64, threshold float64) (Evaluation, error) {
	if len(probs) != len(labels) {
		return Evaluation{}, fmt.Errorf("%d predictions for %d labels", len(probs), len(labels))
	}
	if len(probs) == 0 {
		return Evaluation{}, fmt.Errorf("nothing to evaluate")
	}

	e := Evaluation{Threshold: threshold}
	for i, p := range probs {
		predicted := p > threshold
		actual := labels[i] == float64(reservation.Fraud)
		switch {
		case predicted && actual:
			e.TP++
		case predicted && !actual:
			e.FP++
		case !predicted && !actual:
			e.TN++
		default:
			e.FN++
		}
	}

	e.Accuracy = float64(e.TP+e.TN) / float64(len(probs))
	e.Fraud = classMetrics(e.TP, e.FP, e.FN)
	e.Legit = classMetrics(e.TN, e.FN, e.FP)
	e.AUC = rocAUC(probs, labels)
	return e, nil
}

func classMetrics(tp, fp, fn int) ClassMetrics {
	m := ClassMetrics{Support: tp + fn}
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// rocAUC is the area under the ROC curve, 0.5 when only one class is present.
func rocAUC(probs, labels []float64) float64 {
	y := slices.Clone(probs)
	classes := make([]bool, len(labels))
	var pos int
	for i, l := range labels {
		classes[i] = l == float64(reservation.Fraud)
		if classes[i] {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return 0.5
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// Write renders e as a classification report.
func (e Evaluation) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tprecision\trecall\tf1-score\tsupport\t")
	for _, row := range []struct {
		name string
		m    ClassMetrics
	}{
		{reservation.Legit.String(), e.Legit},
		{reservation.Fraud.String(), e.Fraud},
	} {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%d\t\n", row.name, row.m.Precision, row.m.Recall, row.m.F1, row.m.Support)
	}
	fmt.Fprintf(tw, "accuracy\t\t\t%.2f\t%d\t\n", e.Accuracy, e.TP+e.FP+e.TN+e.FN)
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nconfusion matrix (rows actual, cols predicted legit/fraud)\n%6d %6d\n%6d %6d\n\nROC AUC: %.4f\n",
		e.TN, e.FP, e.FN, e.TP, e.AUC); err != nil {
		return err
	}
	if e.Loss > 0 {
		_, err := fmt.Fprintf(w, "BCE loss: %.4f\n", e.Loss)
		return err
	}
	return nil
}
