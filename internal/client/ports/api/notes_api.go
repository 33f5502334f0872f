// Package api определяет основной порт клиента заметок.
package api

import (
	"context"
	"time"

	"notesync/internal/client/domain/entities"
	"notesync/internal/client/domain/result"
)

// NotesAPI - операции учетной записи и заметок. Ни одна операция не возвращает
// ошибку вне Result.
type NotesAPI interface {
	Register(ctx context.Context, creds entities.Credentials) result.Result[result.Unit]

	Login(ctx context.Context, creds entities.Credentials) result.Result[result.Unit]

	Logout(ctx context.Context) result.Result[result.Unit]

	ListNotes(ctx context.Context, page, size int) result.Result[entities.NoteResponse]

	GetNote(ctx context.Context, id string) result.Result[entities.Note]

	CreateNote(ctx context.Context, note entities.Note) result.Result[entities.Note]

	UpdateNote(ctx context.Context, id, title, content string, lastEditedAt time.Time) result.Result[entities.Note]

	DeleteNote(ctx context.Context, id string) result.Result[result.Unit]
}
