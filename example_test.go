package communicator_test

import (
	"fmt"
	"sort"
	"sync"

	"github.com/joeycumines/go-communicator"
)

func ExampleCommunicator() {
	c := communicator.New[string]()

	// the speaker won't return until the listener has the value
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Send(`ping`)
	}()

	value := c.Receive()
	<-done

	fmt.Println(`heard:`, value)
	fmt.Printf("%+v\n", c.Stats())

	//output:
	//heard: ping
	//{Sent:1 Received:1 SpeakersWaiting:0 ListenersWaiting:0 Occupied:false}
}

func ExampleCommunicator_manyToMany() {
	c := communicator.New[communicator.Word]()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		received []int
	)
	for i := 1; i <= 5; i++ {
		wg.Add(2)
		go func(value communicator.Word) {
			defer wg.Done()
			c.Send(value)
		}(communicator.Word(i * 10))
		go func() {
			defer wg.Done()
			value := c.Receive()
			mu.Lock()
			received = append(received, int(value))
			mu.Unlock()
		}()
	}
	wg.Wait()

	// pairing order is arbitrary, but every value arrives exactly once
	sort.Ints(received)
	fmt.Println(received)
	fmt.Printf("%+v\n", c.Stats())

	//output:
	//[10 20 30 40 50]
	//{Sent:5 Received:5 SpeakersWaiting:0 ListenersWaiting:0 Occupied:false}
}
