// Package fake содержит детерминированные заменители фасада заметок для тестов
// вызывающего кода.
package fake

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"notesync/internal/client/domain/entities"
	"notesync/internal/client/domain/result"
	"notesync/internal/client/ports/api"
)

// Op - имя операции фасада.
type Op string

// Операции фасада.
const (
	OpRegister   Op = "Register"
	OpLogin      Op = "Login"
	OpLogout     Op = "Logout"
	OpListNotes  Op = "ListNotes"
	OpGetNote    Op = "GetNote"
	OpCreateNote Op = "CreateNote"
	OpUpdateNote Op = "UpdateNote"
	OpDeleteNote Op = "DeleteNote"
)

// Call - записанный вызов.
type Call struct {
	Op   Op
	Args []any
}

// Option настраивает заменитель.
type Option func(*NotesAPI)

// WithClock задает источник времени для меток заметок.
func WithClock(now func() time.Time) Option {
	return func(f *NotesAPI) {
		f.now = now
	}
}

// NotesAPI - потокобезопасный заменитель api.NotesAPI.
type NotesAPI struct {
	mu       sync.Mutex
	notes    map[string]entities.Note
	nextID   int
	loggedIn bool
	failAll  error
	failNext map[Op][]error
	calls    []Call
	now      func() time.Time
}

var _ api.NotesAPI = (*NotesAPI)(nil)

// NewSucceeding создает заменитель, хранящий заметки в памяти.
// Идентификаторы выдаются последовательно: note-1, note-2, ...
func NewSucceeding(opts ...Option) *NotesAPI {
	f := &NotesAPI{
		notes:    make(map[string]entities.Note),
		failNext: make(map[Op][]error),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFailing создает заменитель, каждая операция которого завершается ошибкой err.
func NewFailing(err error) *NotesAPI {
	f := NewSucceeding()
	f.failAll = err
	return f
}

// FailNext заставляет следующий вызов op завершиться ошибкой err.
// Повторные вызовы ставятся в очередь.
func (f *NotesAPI) FailNext(op Op, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[op] = append(f.failNext[op], err)
}

// Calls возвращает копию журнала вызовов.
func (f *NotesAPI) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([]Call, len(f.calls))
	copy(calls, f.calls)
	return calls
}

// CallCount возвращает число вызовов op.
func (f *NotesAPI) CallCount(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// LoggedIn сообщает, выполнен ли вход.
func (f *NotesAPI) LoggedIn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedIn
}

// begin записывает вызов и возвращает запланированную ошибку. Вызывается под блокировкой.
func (f *NotesAPI) begin(op Op, args ...any) error {
	f.calls = append(f.calls, Call{Op: op, Args: args})
	if f.failAll != nil {
		return f.failAll
	}
	if queue := f.failNext[op]; len(queue) > 0 {
		f.failNext[op] = queue[1:]
		return queue[0]
	}
	return nil
}

// Register всегда успешен.
func (f *NotesAPI) Register(_ context.Context, creds entities.Credentials) result.Result[result.Unit] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpRegister, creds.Email); err != nil {
		return result.Failure[result.Unit](err)
	}
	return result.Success(result.Unit{})
}

// Login всегда успешен.
func (f *NotesAPI) Login(_ context.Context, creds entities.Credentials) result.Result[result.Unit] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpLogin, creds.Email); err != nil {
		return result.Failure[result.Unit](err)
	}
	f.loggedIn = true
	return result.Success(result.Unit{})
}

// Logout сбрасывает признак входа.
func (f *NotesAPI) Logout(_ context.Context) result.Result[result.Unit] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpLogout); err != nil {
		return result.Failure[result.Unit](err)
	}
	f.loggedIn = false
	return result.Success(result.Unit{})
}

// ListNotes возвращает страницу заметок в порядке создания.
func (f *NotesAPI) ListNotes(_ context.Context, page, size int) result.Result[entities.NoteResponse] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpListNotes, page, size); err != nil {
		return result.Failure[entities.NoteResponse](err)
	}
	if page < 1 || size < 1 {
		return result.Failure[entities.NoteResponse](fmt.Errorf("%w: page and size must be positive", result.ErrInvalidArgument))
	}

	all := make([]entities.Note, 0, len(f.notes))
	for _, n := range f.notes {
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := min(start+size, len(all))

	return result.Success(entities.NoteResponse{Notes: all[start:end], Total: len(all)})
}

// GetNote возвращает заметку или ServerError 404.
func (f *NotesAPI) GetNote(_ context.Context, id string) result.Result[entities.Note] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpGetNote, id); err != nil {
		return result.Failure[entities.Note](err)
	}
	note, ok := f.notes[id]
	if !ok {
		return result.Failure[entities.Note](notFound(id))
	}
	return result.Success(note)
}

// CreateNote сохраняет заметку под следующим последовательным идентификатором.
func (f *NotesAPI) CreateNote(_ context.Context, note entities.Note) result.Result[entities.Note] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpCreateNote, note.Title); err != nil {
		return result.Failure[entities.Note](err)
	}

	f.nextID++
	now := f.now().UTC()
	created := entities.Note{
		ID:           fmt.Sprintf("note-%d", f.nextID),
		Title:        note.Title,
		Content:      note.Content,
		CreatedAt:    now,
		LastEditedAt: now,
	}
	f.notes[created.ID] = created
	return result.Success(created)
}

// UpdateNote заменяет заголовок и содержимое.
func (f *NotesAPI) UpdateNote(_ context.Context, id, title, content string, lastEditedAt time.Time) result.Result[entities.Note] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpUpdateNote, id, title, content, lastEditedAt); err != nil {
		return result.Failure[entities.Note](err)
	}
	note, ok := f.notes[id]
	if !ok {
		return result.Failure[entities.Note](notFound(id))
	}
	note.Title = title
	note.Content = content
	note.LastEditedAt = lastEditedAt.UTC()
	f.notes[id] = note
	return result.Success(note)
}

// DeleteNote удаляет заметку.
func (f *NotesAPI) DeleteNote(_ context.Context, id string) result.Result[result.Unit] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpDeleteNote, id); err != nil {
		return result.Failure[result.Unit](err)
	}
	if _, ok := f.notes[id]; !ok {
		return result.Failure[result.Unit](notFound(id))
	}
	delete(f.notes, id)
	return result.Success(result.Unit{})
}

func notFound(id string) error {
	return result.NewServerError(http.StatusNotFound, fmt.Sprintf("note %s not found", id))
}
