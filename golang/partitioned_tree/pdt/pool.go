package pdt

import "sync"

//Task is a unit of work executed by a Pool.
type Task interface {
	Run()
}

//Pool runs tasks on a fixed number of goroutines.
type Pool struct {
	tasks chan Task
	wg    sync.WaitGroup
}

//NewPool starts threadsNum workers. Values below one start a single worker.
func NewPool(threadsNum int) *Pool {
	if threadsNum < 1 {
		threadsNum = 1
	}
	pool := &Pool{tasks: make(chan Task)}
	pool.wg.Add(threadsNum)
	for i := 0; i < threadsNum; i++ {
		go pool.work()
	}
	return pool
}

func (pool *Pool) work() {
	defer pool.wg.Done()
	for task := range pool.tasks {
		task.Run()
	}
}

//AddTask blocks until a worker accepts the task.
func (pool *Pool) AddTask(task Task) {
	pool.tasks <- task
}

//Close tells the workers that no more tasks will come.
func (pool *Pool) Close() {
	close(pool.tasks)
}

//WaitAll waits for the workers to drain the queue. Close must be called first.
func (pool *Pool) WaitAll() {
	pool.wg.Wait()
}
