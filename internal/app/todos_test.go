package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/chepyr/go-todo/internal/client"
	"github.com/chepyr/go-todo/internal/models"
	"github.com/chepyr/go-todo/internal/session"
)

func mountedPage(t *testing.T) (*TodosPage, *fakeGateway) {
	t.Helper()
	gw := newFakeGateway()
	page := NewTodosPage(gw, fakeSession(true))
	if err := page.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return page, gw
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTodosPage_MountWithoutSession(t *testing.T) {
	gw := newFakeGateway()
	page := NewTodosPage(gw, fakeSession(false))

	err := page.Mount(context.Background())
	if !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("Mount error = %v, want ErrNoSession", err)
	}
	v := page.Snapshot()
	if v.Redirect != RouteSignin {
		t.Errorf("Redirect = %q, want %q", v.Redirect, RouteSignin)
	}
	if v.State != StateUninitialized {
		t.Errorf("State = %v, want uninitialized", v.State)
	}

	// terminal for this instance
	if err := page.Reload(context.Background()); err != nil {
		t.Errorf("Reload after redirect: %v", err)
	}
	if n := gw.total(); n != 0 {
		t.Errorf("gateway saw %d calls, want 0", n)
	}
}

func TestTodosPage_MountLoads(t *testing.T) {
	page, gw := mountedPage(t)

	v := page.Snapshot()
	if v.State != StateReady {
		t.Fatalf("State = %v, want ready", v.State)
	}
	if !v.Empty() {
		t.Errorf("expected an empty collection, got %d tasks", len(v.Tasks))
	}
	if gw.count("list") != 1 {
		t.Errorf("list calls = %d, want 1", gw.count("list"))
	}
}

func TestTodosPage_CreateAddsOneTask(t *testing.T) {
	page, gw := mountedPage(t)
	ctx := context.Background()

	if _, err := page.Create(ctx, "Older", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := page.Snapshot().Tasks

	task, err := page.Create(ctx, "  Buy milk  ", "2 liters")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	v := page.Snapshot()
	if len(v.Tasks) != len(before)+1 {
		t.Fatalf("got %d tasks, want %d", len(v.Tasks), len(before)+1)
	}
	got := v.Tasks[0]
	if got.ID != task.ID || got.Title != "Buy milk" || got.Completed {
		t.Errorf("newest task = %+v", got)
	}
	if got.Description == nil || *got.Description != "2 liters" {
		t.Errorf("description = %v", got.Description)
	}
	if gw.count("list") != 3 {
		t.Errorf("list calls = %d, want a re-fetch after each create", gw.count("list"))
	}
}

func TestTodosPage_CreateBlankDescriptionIsOmitted(t *testing.T) {
	page, _ := mountedPage(t)

	task, err := page.Create(context.Background(), "Call mom", "   ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Description != nil {
		t.Errorf("description = %q, want nil", *task.Description)
	}
}

func TestTodosPage_CreateRejectsBlankTitle(t *testing.T) {
	page, gw := mountedPage(t)
	calls := gw.total()

	_, err := page.Create(context.Background(), " \t ", "desc")
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "title" {
		t.Fatalf("error = %v, want title validation error", err)
	}
	if got := page.Snapshot().CreateErr; got != "Title is required" {
		t.Errorf("CreateErr = %q", got)
	}
	if gw.total() != calls {
		t.Error("a request was sent for a blank title")
	}
}

func TestTodosPage_CreateWhileInFlight(t *testing.T) {
	page, gw := mountedPage(t)
	release := make(chan struct{})
	gw.setHook(func(op string, n int) {
		if op == "create" && n == 1 {
			<-release
		}
	})

	done := make(chan error, 1)
	go func() {
		_, err := page.Create(context.Background(), "first", "")
		done <- err
	}()
	waitFor(t, "create in flight", func() bool { return page.Snapshot().Creating })

	if _, err := page.Create(context.Background(), "second", ""); !errors.Is(err, ErrBusy) {
		t.Errorf("second Create error = %v, want ErrBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if gw.count("create") != 1 {
		t.Errorf("create calls = %d, want 1", gw.count("create"))
	}
	if page.Snapshot().Creating {
		t.Error("Creating still set after completion")
	}
}

func TestTodosPage_CreateFailureKeepsCollection(t *testing.T) {
	page, gw := mountedPage(t)
	page.Create(context.Background(), "keep me", "")
	gw.fail("create", &client.TransportError{Op: client.OpCreateTask, Err: errors.New("connection refused")})

	if _, err := page.Create(context.Background(), "lost", ""); err == nil {
		t.Fatal("expected an error")
	}
	v := page.Snapshot()
	if v.CreateErr != "Failed to create todo" {
		t.Errorf("CreateErr = %q", v.CreateErr)
	}
	if len(v.Tasks) != 1 || v.Tasks[0].Title != "keep me" {
		t.Errorf("collection changed: %+v", v.Tasks)
	}
}

func TestTodosPage_ToggleTwice(t *testing.T) {
	page, _ := mountedPage(t)
	ctx := context.Background()
	task, _ := page.Create(ctx, "Buy milk", "")
	id := task.ID.String()

	first, err := page.Toggle(ctx, id)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !first.Completed || first.UpdatedAt == nil {
		t.Fatalf("after first toggle: %+v", first)
	}
	if v := page.Snapshot(); v.CompletedCount != 1 {
		t.Errorf("CompletedCount = %d, want 1", v.CompletedCount)
	}

	second, err := page.Toggle(ctx, id)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if second.Completed != task.Completed {
		t.Errorf("completed = %v after two toggles, want %v", second.Completed, task.Completed)
	}
	if !second.UpdatedAt.After(*first.UpdatedAt) {
		t.Errorf("updated_at did not move: %v then %v", first.UpdatedAt, second.UpdatedAt)
	}
	got, _ := page.Find(id)
	if got.Completed {
		t.Error("re-fetched task still completed")
	}
}

func TestTodosPage_ToggleSameItemBusy(t *testing.T) {
	page, gw := mountedPage(t)
	ctx := context.Background()
	a, _ := page.Create(ctx, "a", "")
	b, _ := page.Create(ctx, "b", "")

	release := make(chan struct{})
	gw.setHook(func(op string, n int) {
		if op == "toggle" && n == 1 {
			<-release
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		page.Toggle(ctx, a.ID.String())
	}()
	waitFor(t, "toggle in flight", func() bool { return page.Snapshot().Toggling[a.ID.String()] })

	if _, err := page.Toggle(ctx, a.ID.String()); !errors.Is(err, ErrBusy) {
		t.Errorf("second toggle of same task = %v, want ErrBusy", err)
	}
	if _, err := page.Toggle(ctx, b.ID.String()); err != nil {
		t.Errorf("toggle of another task: %v", err)
	}
	close(release)
	wg.Wait()

	v := page.Snapshot()
	if v.CompletedCount != 2 {
		t.Errorf("CompletedCount = %d, want 2", v.CompletedCount)
	}
	if len(v.Toggling) != 0 {
		t.Errorf("toggling flags left: %v", v.Toggling)
	}
}

func TestTodosPage_ToggleMissingSetsItemError(t *testing.T) {
	page, _ := mountedPage(t)
	id := "9b2f0a52-8c36-4a43-9d55-0c6e2f1f4f11"

	if _, err := page.Toggle(context.Background(), id); !client.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
	v := page.Snapshot()
	if v.ItemErrors[id] != "Todo not found" {
		t.Errorf("item error = %q", v.ItemErrors[id])
	}
	if v.Redirect != RouteNone {
		t.Errorf("Redirect = %q, want none", v.Redirect)
	}
}

func TestDeleteConfirm(t *testing.T) {
	page, gw := mountedPage(t)
	ctx := context.Background()
	task, _ := page.Create(ctx, "Buy milk", "")
	id := task.ID.String()
	calls := gw.total()

	confirm := page.ConfirmDelete(id)
	confirm.Open()
	if !confirm.IsOpen() {
		t.Fatal("prompt not open")
	}
	confirm.Cancel()
	if confirm.IsOpen() || gw.total() != calls {
		t.Fatal("cancel must close the prompt without a request")
	}
	if _, ok := page.Find(id); !ok {
		t.Fatal("task gone after cancel")
	}

	confirm.Open()
	if err := confirm.Confirm(ctx); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirm.IsOpen() || confirm.Busy() {
		t.Error("prompt should be closed and idle")
	}
	if _, ok := page.Find(id); ok {
		t.Error("task still listed after delete")
	}
	if !page.Snapshot().Empty() {
		t.Error("collection should be empty")
	}

	// deleting again hits a missing task
	confirm.Open()
	if err := confirm.Confirm(ctx); !client.IsNotFound(err) {
		t.Errorf("second delete error = %v, want not found", err)
	}
}

func TestDeleteConfirm_Failure(t *testing.T) {
	page, gw := mountedPage(t)
	ctx := context.Background()
	task, _ := page.Create(ctx, "stays", "")
	gw.fail("delete", &client.APIError{Op: client.OpDeleteTask, Status: http.StatusForbidden, Message: "Forbidden"})

	confirm := page.ConfirmDelete(task.ID.String())
	confirm.Open()
	if err := confirm.Confirm(ctx); err == nil {
		t.Fatal("expected an error")
	}
	if confirm.Err() != "Forbidden" || confirm.IsOpen() || confirm.Busy() {
		t.Errorf("err=%q open=%v busy=%v", confirm.Err(), confirm.IsOpen(), confirm.Busy())
	}
	if _, ok := page.Find(task.ID.String()); !ok {
		t.Error("task removed despite failure")
	}
}

func TestDeleteConfirm_Busy(t *testing.T) {
	page, gw := mountedPage(t)
	ctx := context.Background()
	task, _ := page.Create(ctx, "x", "")
	release := make(chan struct{})
	gw.setHook(func(op string, n int) {
		if op == "delete" {
			<-release
		}
	})

	confirm := page.ConfirmDelete(task.ID.String())
	confirm.Open()
	done := make(chan error, 1)
	go func() { done <- confirm.Confirm(ctx) }()
	waitFor(t, "delete in flight", confirm.Busy)

	if err := confirm.Confirm(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("second Confirm = %v, want ErrBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if gw.count("delete") != 1 {
		t.Errorf("delete calls = %d, want 1", gw.count("delete"))
	}
}

func TestDeleteConfirm_RequiresOpen(t *testing.T) {
	page, gw := mountedPage(t)
	ctx := context.Background()
	task, _ := page.Create(ctx, "keep", "")
	id := task.ID.String()

	confirm := page.ConfirmDelete(id)
	if err := confirm.Confirm(ctx); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Confirm without Open = %v, want ErrNotOpen", err)
	}
	if gw.count("delete") != 0 {
		t.Fatalf("delete calls = %d, want 0", gw.count("delete"))
	}

	gw.fail("delete", &client.APIError{Op: client.OpDeleteTask, Status: http.StatusForbidden, Message: "Forbidden"})
	confirm.Open()
	if err := confirm.Confirm(ctx); err == nil {
		t.Fatal("expected an error")
	}
	// the failed attempt closed the prompt, so repeating needs a new Open
	if err := confirm.Confirm(ctx); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Confirm after failure = %v, want ErrNotOpen", err)
	}
	if gw.count("delete") != 1 {
		t.Errorf("delete calls = %d, want 1", gw.count("delete"))
	}
	if _, ok := page.Find(id); !ok {
		t.Error("task removed")
	}
}

func TestDeleteConfirm_SameTaskTwoPrompts(t *testing.T) {
	page, gw := mountedPage(t)
	ctx := context.Background()
	task, _ := page.Create(ctx, "x", "")
	id := task.ID.String()
	release := make(chan struct{})
	gw.setHook(func(op string, n int) {
		if op == "delete" {
			<-release
		}
	})

	first := page.ConfirmDelete(id)
	second := page.ConfirmDelete(id)
	first.Open()
	second.Open()
	done := make(chan error, 1)
	go func() { done <- first.Confirm(ctx) }()
	waitFor(t, "delete in flight", func() bool { return page.Snapshot().Deleting[id] })

	if err := second.Confirm(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("second prompt Confirm = %v, want ErrBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if gw.count("delete") != 1 {
		t.Errorf("delete calls = %d, want 1", gw.count("delete"))
	}
	if page.Snapshot().Deleting[id] {
		t.Error("task still marked as deleting")
	}
}

func TestTodosPage_InvalidToken(t *testing.T) {
	gw := newFakeGateway()
	gw.CreateTask(context.Background(), "hidden", nil)
	gw.fail("list", &client.APIError{Op: client.OpListTasks, Status: http.StatusUnauthorized, Message: "Could not validate credentials"})
	page := NewTodosPage(gw, fakeSession(true))

	if err := page.Mount(context.Background()); !client.IsAuthError(err) {
		t.Fatalf("Mount error = %v, want auth error", err)
	}
	v := page.Snapshot()
	if len(v.Tasks) != 0 {
		t.Errorf("collection populated: %+v", v.Tasks)
	}
	if v.Redirect != RouteSignin {
		t.Errorf("Redirect = %q, want %q", v.Redirect, RouteSignin)
	}
}

func TestTodosPage_InitialFetchFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.fail("list", &client.TransportError{Op: client.OpListTasks, Err: errors.New("dial tcp: refused")})
	page := NewTodosPage(gw, fakeSession(true))

	if err := page.Mount(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	v := page.Snapshot()
	if v.State != StateReady || !v.Empty() {
		t.Errorf("state = %v with %d tasks, want ready and empty", v.State, len(v.Tasks))
	}
	if v.Err != "Failed to fetch todos" {
		t.Errorf("Err = %q", v.Err)
	}
	if v.Redirect != RouteNone {
		t.Errorf("Redirect = %q, want none", v.Redirect)
	}

	// a user-initiated retry recovers
	gw.fail("list", nil)
	gw.CreateTask(context.Background(), "back", nil)
	if err := page.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if v := page.Snapshot(); v.Err != "" || len(v.Tasks) != 1 {
		t.Errorf("after retry: err=%q tasks=%d", v.Err, len(v.Tasks))
	}
}

func TestTodosPage_StaleFetchDiscarded(t *testing.T) {
	page, gw := mountedPage(t)
	ctx := context.Background()
	release := make(chan struct{})
	gw.setHook(func(op string, n int) {
		if op == "list" && n == 2 {
			<-release
		}
	})

	done := make(chan struct{})
	go func() {
		page.Reload(ctx)
		close(done)
	}()
	waitFor(t, "slow fetch", func() bool { return gw.count("list") == 2 })

	gw.CreateTask(ctx, "fresh", nil)
	if err := page.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	close(release)
	<-done

	v := page.Snapshot()
	if len(v.Tasks) != 1 || v.Tasks[0].Title != "fresh" {
		t.Errorf("stale result overwrote newer one: %+v", v.Tasks)
	}
}

func TestTodosPage_UnmountDiscardsResults(t *testing.T) {
	page, gw := mountedPage(t)
	ctx := context.Background()
	gw.CreateTask(ctx, "late", nil)
	release := make(chan struct{})
	gw.setHook(func(op string, n int) {
		if op == "list" {
			<-release
		}
	})

	done := make(chan struct{})
	go func() {
		page.Reload(ctx)
		close(done)
	}()
	waitFor(t, "fetch in flight", func() bool { return gw.count("list") == 2 })
	page.Unmount()
	close(release)
	<-done

	if v := page.Snapshot(); len(v.Tasks) != 0 {
		t.Errorf("result applied after unmount: %+v", v.Tasks)
	}
}

func TestTodosPage_Follow(t *testing.T) {
	page, gw := mountedPage(t)
	feed := &fakeFeed{events: make(chan models.Event)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan View, 1)
	done := make(chan error, 1)
	go func() {
		done <- page.Follow(ctx, feed, func(v View) { changes <- v })
	}()

	task, _ := gw.CreateTask(ctx, "from another device", nil)
	feed.events <- models.NewEvent(models.EventTodoCreated, task)

	select {
	case v := <-changes:
		if len(v.Tasks) != 1 || v.Tasks[0].ID != task.ID {
			t.Errorf("view after event: %+v", v.Tasks)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Follow: %v", err)
	}
}

func TestTodosPage_Signout(t *testing.T) {
	page, gw := mountedPage(t)
	gw.signedIn = true

	if err := page.Signout(context.Background(), gw); err != nil {
		t.Fatalf("Signout: %v", err)
	}
	if page.Snapshot().Redirect != RouteSignin {
		t.Error("signout should redirect to sign-in")
	}
	if gw.signedIn {
		t.Error("gateway still signed in")
	}
}
