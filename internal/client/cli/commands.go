package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/client/models"
	"github.com/dmitrijs2005/fieldsync/internal/client/repositories/cases"
	"github.com/dmitrijs2005/fieldsync/internal/client/syncer"
	"github.com/dmitrijs2005/fieldsync/internal/common"
)

// getSimpleText and getSecret are swapped in tests.
var (
	getSimpleText = GetSimpleText
	getSecret     = GetSecret
)

const timeLayout = "2006-01-02 15:04"

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func (a *App) Help(ctx context.Context, args []string) error {
	a.printf("%s\n", helpText)
	return nil
}

func (a *App) Token(ctx context.Context, args []string) error {
	if a.remote == nil || a.remote.tokens == nil {
		a.printf("The configured backends do not use a gateway token.\n")
		return nil
	}
	tok, err := getSecret("Access token", a.out)
	if err != nil {
		return err
	}
	a.remote.tokens.SetAccessToken(tok)
	a.printf("Token updated.\n")
	return nil
}

func (a *App) Reviewer(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
		id, err := a.cases.Reviewer(ctx)
		if err != nil {
			return err
		}
		if id == "" {
			id = "(not set)"
		}
		a.printf("Reviewer: %s\n", id)
		return nil
	case 1:
		id := args[0]
		if id == "-" {
			id = ""
		}
		return a.cases.SetReviewer(ctx, id)
	default:
		return errUsage
	}
}

func (a *App) Cases(ctx context.Context, args []string) error {
	var f cases.Filter
	if len(args) > 0 {
		f.Status = models.CaseStatus(args[0])
		if !f.Status.Valid() {
			return fmt.Errorf("status %q: %w", args[0], common.ErrInvalidValue)
		}
	}
	list, err := a.cases.List(ctx, f)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("No cases.\n")
		return nil
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tVEHICLE\tSTATUS\tSYNC\tUPDATED")
	for _, c := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Title(), c.Status, c.SyncStatus, c.UpdatedAt.Local().Format(timeLayout))
	}
	return w.Flush()
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	c, err := a.cases.Read(ctx, args[0])
	if err != nil {
		return err
	}

	a.printf("%s\n", c.Title())
	w := a.table()
	fmt.Fprintf(w, "  id\t%s\n", c.ID)
	fmt.Fprintf(w, "  status\t%s\n", c.Status)
	fmt.Fprintf(w, "  sync\t%s\n", c.SyncStatus)
	fmt.Fprintf(w, "  client\t%s\n", c.ClientID)
	fmt.Fprintf(w, "  reviewer\t%s\n", c.ReviewerID)
	fmt.Fprintf(w, "  vin\t%s\n", c.VIN)
	fmt.Fprintf(w, "  mileage\t%d\n", c.Mileage)
	fmt.Fprintf(w, "  color\t%s\n", c.Color)
	if err := w.Flush(); err != nil {
		return err
	}

	answers, err := a.checklist.List(ctx, c.ID)
	if err != nil {
		return err
	}
	if len(answers) > 0 {
		a.printf("Checklist:\n")
		w = a.table()
		for _, ans := range answers {
			q, qerr := models.LookupQuestion(ans.QuestionKey)
			label := ans.QuestionKey
			value := ans.Value().String()
			if qerr == nil {
				label = q.Label
				value = q.Describe(ans.Value())
			}
			synced := ""
			if !ans.IsSynced {
				synced = "*"
			}
			fmt.Fprintf(w, "  %s\t%s%s\t%s\n", label, value, synced, ans.Note)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return a.Media(ctx, args)
}

func (a *App) New(ctx context.Context, args []string) error {
	var c models.Case
	prompts := []struct {
		label string
		dst   *string
	}{
		{"Client id", &c.ClientID},
		{"Vehicle make", &c.VehicleMake},
		{"Vehicle model", &c.VehicleModel},
		{"VIN", &c.VIN},
		{"Plate", &c.Plate},
		{"Color", &c.Color},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.label, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}
	for _, p := range []struct {
		label string
		dst   *int
	}{{"Vehicle year", &c.VehicleYear}, {"Mileage", &c.Mileage}} {
		v, err := getSimpleText(a.reader, p.label, a.out)
		if err != nil {
			return err
		}
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s %q: %w", strings.ToLower(p.label), v, common.ErrInvalidValue)
		}
		*p.dst = n
	}

	reviewer, err := a.cases.Reviewer(ctx)
	if err != nil {
		return err
	}
	c.ReviewerID = reviewer

	created, err := a.cases.Create(ctx, c)
	if err != nil {
		return err
	}
	a.printf("Created case %s\n", created.ID)
	return nil
}

func (a *App) Status(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	st := models.CaseStatus(args[1])
	c, err := a.cases.Write(ctx, args[0], models.CaseUpdate{Status: &st})
	if err != nil {
		return err
	}
	a.printf("Case %s is %s\n", c.ID, c.Status)
	return nil
}

func (a *App) Checklist(ctx context.Context, args []string) error {
	w := a.table()
	fmt.Fprintln(w, "KEY\tCATEGORY\tTYPE\tQUESTION")
	for _, q := range a.checklist.Catalog() {
		kind := string(q.Type)
		if len(q.Options) > 0 {
			kind += " (" + strings.Join(q.Options, "|") + ")"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", q.Key, q.Category, kind, q.Label)
	}
	return w.Flush()
}

func (a *App) Answer(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	ans, err := a.checklist.SaveRaw(ctx, args[0], args[1], args[2], strings.Join(args[3:], " "))
	if err != nil {
		return err
	}
	a.printf("Saved %s = %s\n", ans.QuestionKey, ans.Value())
	return nil
}

func (a *App) Photo(ctx context.Context, args []string) error {
	return a.attach(ctx, args, models.MediaPhoto)
}

func (a *App) Video(ctx context.Context, args []string) error {
	return a.attach(ctx, args, models.MediaVideo)
}

func (a *App) attach(ctx context.Context, args []string, kind models.MediaKind) error {
	if len(args) != 3 {
		return errUsage
	}
	var item *string
	if args[1] != "-" {
		item = &args[1]
	}
	data, err := os.ReadFile(args[2])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[2], err)
	}
	m, err := a.media.Save(ctx, args[0], item, data, kind)
	if err != nil {
		return err
	}
	a.printf("Queued %s %s (%s, %d bytes)\n", kind, m.ID, m.ContentType, m.Size)
	return nil
}

func (a *App) RemoveMedia(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.media.Delete(ctx, args[0]); err != nil {
		return err
	}
	a.printf("Media %s marked for deletion\n", args[0])
	return nil
}

func (a *App) Media(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	items, err := a.media.List(ctx, args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		a.printf("No media.\n")
		return nil
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tKIND\tQUESTION\tSTATUS\tTYPE\tERROR")
	for _, m := range items {
		q := "-"
		if m.ChecklistItemID != nil {
			q = *m.ChecklistItemID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Kind, q, m.SyncStatus, m.ContentType, m.LastError)
	}
	return w.Flush()
}

func (a *App) RetryMedia(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	st, err := a.media.Retry(ctx, args[0])
	if err != nil {
		return err
	}
	a.printf("Media %s is %s\n", args[0], st)
	return nil
}

func (a *App) Sync(ctx context.Context, args []string) error {
	r, err := a.sync.SyncNow(ctx)
	if errors.Is(err, common.ErrUnavailable) && r == (syncer.Report{}) {
		a.printf("Offline: changes stay queued.\n")
		return nil
	}
	a.printf("Applied %d, failed %d, dead-lettered %d; media uploaded %d, deleted %d, failed %d, terminal %d\n",
		r.Applied, r.Failed, r.DeadLettered, r.Media.Uploaded, r.Media.Deleted, r.Media.Failed, r.Media.Terminal)
	return err
}

func (a *App) Pull(ctx context.Context, args []string) error {
	reviewer, err := a.cases.Reviewer(ctx)
	if err != nil {
		return err
	}
	if reviewer == "" {
		a.printf("Set a reviewer first: %s\n", usage["reviewer"])
		return nil
	}
	res, err := a.cases.Pull(ctx, reviewer)
	if err != nil {
		return err
	}
	a.printf("Pulled %d cases, %d answers\n", res.Cases, res.Answers)
	return nil
}

func (a *App) Queue(ctx context.Context, args []string) error {
	st, err := a.queue.Stats(ctx)
	if err != nil {
		return err
	}
	a.printf("Operations: %d live (%d waiting for retry), %d dead\n", st.Live, st.Deferred, st.Dead)

	pending, err := a.queue.Pending(ctx, 20)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		a.printEntries(pending)
	}

	ms, err := a.media.Stats(ctx)
	if err != nil {
		return err
	}
	for _, s := range []models.MediaStatus{
		models.MediaPendingUpload, models.MediaPendingDelete,
		models.MediaErrorUpload, models.MediaErrorDelete, models.MediaErrorNoBlob,
	} {
		if n := ms[s]; n > 0 {
			a.printf("Media %s: %d\n", s, n)
		}
	}
	return nil
}

func (a *App) Dead(ctx context.Context, args []string) error {
	dead, err := a.queue.DeadLetters(ctx)
	if err != nil {
		return err
	}
	if len(dead) == 0 {
		a.printf("No dead-lettered operations.\n")
		return nil
	}
	a.printEntries(dead)
	return nil
}

func (a *App) Retry(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	seq, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errUsage
	}
	if err := a.queue.Requeue(ctx, seq); err != nil {
		return err
	}
	a.printf("Operation %d requeued\n", seq)
	return nil
}

func (a *App) printEntries(entries []models.QueueEntry) {
	w := a.table()
	fmt.Fprintln(w, "SEQ\tOP\tCOLLECTION\tRECORD\tATTEMPTS\tNEXT\tERROR")
	for _, e := range entries {
		next := "-"
		if !e.NextAttemptAt.IsZero() {
			next = e.NextAttemptAt.Local().Format(time.TimeOnly)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n", e.Seq, e.Op, e.Collection, e.RecordID, e.Attempts, next, e.LastError)
	}
	_ = w.Flush()
}
