package conc

// Future 表示一个异步任务的执行结果。
type Future[T any] struct {
	ch    chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		ch: make(chan struct{}),
	}
}

// Await 阻塞直到任务完成，返回结果与错误。
func (f *Future[T]) Await() (T, error) {
	<-f.ch
	return f.value, f.err
}

// Value 阻塞直到任务完成，仅返回结果。
func (f *Future[T]) Value() T {
	<-f.ch
	return f.value
}

// Err 阻塞直到任务完成，仅返回错误。
func (f *Future[T]) Err() error {
	<-f.ch
	return f.err
}

// Done 返回任务完成时关闭的 channel。
func (f *Future[T]) Done() <-chan struct{} {
	return f.ch
}

// OK 阻塞直到任务完成，返回任务是否成功。
func (f *Future[T]) OK() bool {
	<-f.ch
	return f.err == nil
}

// Go 在新的 goroutine 中执行 fn，并返回对应的 Future。
func Go[T any](fn func() (T, error)) *Future[T] {
	future := newFuture[T]()
	go func() {
		future.value, future.err = fn()
		close(future.ch)
	}()
	return future
}

// AwaitAll 等待全部 Future 完成，返回遇到的第一个错误。
func AwaitAll[T any](futures ...*Future[T]) error {
	var first error
	for _, future := range futures {
		if err := future.Err(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
