package test

import (
	"sync"
)

//Msg is the sent message
type Msg struct {
	M interface{}
	Q string
}

//Sender collects the sent messages
type Sender struct {
	Msgs []Msg
	Err  error
	m    sync.Mutex
}

//Send stores the message or returns Err
func (sender *Sender) Send(m interface{}, q string) error {
	sender.m.Lock()
	defer sender.m.Unlock()
	if sender.Err != nil {
		return sender.Err
	}
	sender.Msgs = append(sender.Msgs, Msg{M: m, Q: q})
	return nil
}

//Sent returns the copy of the sent messages
func (sender *Sender) Sent() []Msg {
	sender.m.Lock()
	defer sender.m.Unlock()
	return append([]Msg(nil), sender.Msgs...)
}
