package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/d2verb/legion/internal/collection"
	"github.com/d2verb/legion/internal/marine"
	"github.com/d2verb/legion/internal/protocol"
)

// Delimiter separates records in listing output.
const Delimiter = "==============="

// persister saves the collection on demand.
type persister interface {
	Save(ctx context.Context, records []*marine.SpaceMarine) error
}

// historySource lists recently executed command names, most recent first.
type historySource interface {
	Entries() []string
}

// Deps are the collaborators the built-in handlers operate on.
type Deps struct {
	Store     *collection.Store
	Persister persister     // optional; save fails without it
	History   historySource // optional; history fails without it

	// Now stamps creation dates. Defaults to time.Now.
	Now func() time.Time
}

type handlers struct {
	Deps
	registry *Registry
}

// NewDefaultRegistry creates a registry holding every built-in command.
func NewDefaultRegistry(deps Deps) *Registry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := &handlers{Deps: deps, registry: NewRegistry()}

	for _, fn := range []*Func{
		NewFunc(protocol.CmdAdd, "add {element}", "add a new element to the collection", h.add),
		NewFunc(protocol.CmdAddIfMax, "add_if_max {element}", "add a new element if it is greater than every element", h.addIfMax),
		NewFunc(protocol.CmdRemoveByID, "remove_by_id <id>", "remove the element with the given id", h.removeByID),
		NewFunc(protocol.CmdRemoveAt, "remove_at <position>", "remove the element at the given position", h.removeAt),
		NewFunc(protocol.CmdRemoveGreater, "remove_greater {element}", "remove every element greater than the given one", h.removeGreater),
		NewFunc(protocol.CmdUpdate, "update <id> {element}", "replace the element with the given id", h.update),
		NewFunc(protocol.CmdFilterByChapter, "filter_by_chapter {chapter}", "show elements belonging to the given chapter", h.filterByChapter),
		NewFunc(protocol.CmdFilterLessThanHealth, "filter_less_than_health <health>", "show elements with health below the given value", h.filterLessThanHealth),
		NewFunc(protocol.CmdShow, "show", "show every element of the collection", h.show),
		NewFunc(protocol.CmdInfo, "info", "show information about the collection", h.info),
		NewFunc(protocol.CmdHelp, "help", "show the list of commands", h.help),
		NewFunc(protocol.CmdPrintUniqueHeartCount, "print_unique_heart_count", "show the distinct heart counts", h.printUniqueHeartCount),
		NewFunc(protocol.CmdSave, "save", "save the collection", h.save),
		NewFunc(protocol.CmdHistory, "history", "show the most recent commands", h.history),
		NewFunc(protocol.CmdServerExit, "server_exit", "save the collection and shut the server down", h.serverExit),
	} {
		// Names are distinct constants; Register cannot fail here.
		_ = h.registry.Register(fn)
	}
	return h.registry
}

func (h *handlers) add(ctx context.Context, arg protocol.Argument) Result {
	m, err := requireMarine(arg, "add {element}")
	if err != nil {
		return fail("%v", err)
	}
	m.CreationDate = h.Now()
	id := h.Store.Insert(m)
	return ok("space marine added with id %d", id)
}

func (h *handlers) addIfMax(ctx context.Context, arg protocol.Argument) Result {
	m, err := requireMarine(arg, "add_if_max {element}")
	if err != nil {
		return fail("%v", err)
	}
	for _, other := range h.Store.All() {
		if marine.Compare(m, other) <= 0 {
			return ok("space marine is not greater than the maximum (id %d), not added", other.ID)
		}
	}
	m.CreationDate = h.Now()
	id := h.Store.Insert(m)
	return ok("space marine added with id %d", id)
}

func (h *handlers) removeByID(ctx context.Context, arg protocol.Argument) Result {
	text, err := requireText(arg, "remove_by_id <id>")
	if err != nil {
		return fail("%v", err)
	}
	id, err := parseID(text)
	if err != nil {
		return fail("%v", err)
	}
	if !h.Store.Remove(id) {
		return fail("no space marine with id %d", id)
	}
	return ok("space marine %d removed", id)
}

func (h *handlers) removeAt(ctx context.Context, arg protocol.Argument) Result {
	text, err := requireText(arg, "remove_at <position>")
	if err != nil {
		return fail("%v", err)
	}
	pos, err := strconv.Atoi(text)
	if err != nil {
		return fail("position must be an integer, got %q", text)
	}
	id, removed := h.Store.RemoveAt(pos)
	if !removed {
		return fail("no element at position %d, the collection has %d elements", pos, h.Store.Len())
	}
	return ok("space marine %d at position %d removed", id, pos)
}

func (h *handlers) removeGreater(ctx context.Context, arg protocol.Argument) Result {
	m, err := requireMarine(arg, "remove_greater {element}")
	if err != nil {
		return fail("%v", err)
	}
	n := h.Store.RemoveIf(func(other *marine.SpaceMarine) bool {
		return marine.Compare(other, m) > 0
	})
	return ok("%d space marine(s) removed", n)
}

func (h *handlers) update(ctx context.Context, arg protocol.Argument) Result {
	usage := "update <id> {element}"
	text := strings.TrimSpace(arg.Text)
	if text == "" {
		return fail("%v", &usageError{usage: usage})
	}
	id, err := parseID(text)
	if err != nil {
		return fail("%v", err)
	}
	old, found := h.Store.Get(id)
	if !found {
		return fail("no space marine with id %d", id)
	}
	m, err := requireMarine(arg, usage)
	if err != nil {
		return fail("%v", err)
	}
	m.CreationDate = old.CreationDate
	h.Store.Replace(id, m)
	return ok("space marine %d updated", id)
}

func (h *handlers) filterByChapter(ctx context.Context, arg protocol.Argument) Result {
	c, err := requireChapter(arg, "filter_by_chapter {chapter}")
	if err != nil {
		return fail("%v", err)
	}
	return ok("%s", listing(h.Store.All(), func(m *marine.SpaceMarine) bool {
		return m.Chapter == *c
	}, "no space marines in chapter "+c.String()))
}

func (h *handlers) filterLessThanHealth(ctx context.Context, arg protocol.Argument) Result {
	text, err := requireText(arg, "filter_less_than_health <health>")
	if err != nil {
		return fail("%v", err)
	}
	limit, err := strconv.Atoi(text)
	if err != nil {
		return fail("health must be an integer, got %q", text)
	}
	return ok("%s", listing(h.Store.All(), func(m *marine.SpaceMarine) bool {
		return m.Health < limit
	}, fmt.Sprintf("no space marines with health less than %d", limit)))
}

func (h *handlers) show(ctx context.Context, arg protocol.Argument) Result {
	if err := requireNone(arg, "show"); err != nil {
		return fail("%v", err)
	}
	return ok("%s", listing(h.Store.All(), nil, "collection is empty"))
}

func (h *handlers) info(ctx context.Context, arg protocol.Argument) Result {
	if err := requireNone(arg, "info"); err != nil {
		return fail("%v", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "type: space marine collection\n")
	fmt.Fprintf(&b, "initialized: %s\n", h.Store.InitTime().Format(time.DateTime))
	fmt.Fprintf(&b, "elements: %d\n", h.Store.Len())
	return ok("%s", b.String())
}

func (h *handlers) help(ctx context.Context, arg protocol.Argument) Result {
	if err := requireNone(arg, "help"); err != nil {
		return fail("%v", err)
	}
	var b strings.Builder
	for _, c := range h.registry.Handlers() {
		fmt.Fprintf(&b, "%-40s %s\n", c.Usage(), c.Description())
	}
	fmt.Fprintf(&b, "%-40s %s\n", "execute <file>", "run commands from a script file")
	fmt.Fprintf(&b, "%-40s %s\n", "exit", "quit the client without saving")
	return ok("%s", b.String())
}

func (h *handlers) printUniqueHeartCount(ctx context.Context, arg protocol.Argument) Result {
	if err := requireNone(arg, "print_unique_heart_count"); err != nil {
		return fail("%v", err)
	}
	all := h.Store.All()
	if len(all) == 0 {
		return ok("collection is empty\n")
	}
	counts := make([]int, 0, len(all))
	for _, m := range all {
		counts = append(counts, m.HeartCount)
	}
	slices.Sort(counts)
	counts = slices.Compact(counts)

	var b strings.Builder
	for _, c := range counts {
		fmt.Fprintf(&b, "%d\n", c)
	}
	return ok("%s", b.String())
}

func (h *handlers) save(ctx context.Context, arg protocol.Argument) Result {
	if err := requireNone(arg, "save"); err != nil {
		return fail("%v", err)
	}
	if h.Persister == nil {
		return fail("no storage configured")
	}
	if err := h.Persister.Save(ctx, h.Store.All()); err != nil {
		return fail("save collection: %v", err)
	}
	return ok("collection saved (%d elements)", h.Store.Len())
}

func (h *handlers) history(ctx context.Context, arg protocol.Argument) Result {
	if err := requireNone(arg, "history"); err != nil {
		return fail("%v", err)
	}
	if h.History == nil {
		return fail("history is not available")
	}
	entries := h.History.Entries()
	if len(entries) == 0 {
		return ok("history is empty\n")
	}
	return ok("%s\n", strings.Join(entries, "\n"))
}

func (h *handlers) serverExit(ctx context.Context, arg protocol.Argument) Result {
	if err := requireNone(arg, "server_exit"); err != nil {
		return fail("%v", err)
	}
	return Result{Outcome: Exit, Text: "server is shutting down"}
}

// listing renders matching records separated by Delimiter lines.
// A nil match selects every record.
func listing(records []*marine.SpaceMarine, match func(*marine.SpaceMarine) bool, empty string) string {
	var b strings.Builder
	for _, m := range records {
		if match != nil && !match(m) {
			continue
		}
		b.WriteString(m.String())
		b.WriteString("\n" + Delimiter + "\n")
	}
	if b.Len() == 0 {
		return empty + "\n"
	}
	return b.String()
}
