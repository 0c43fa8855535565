package vm

import "github.com/holiman/uint256"

func (m *machine) pop1() (uint256.Int, bool) {
	v, err := m.stack.Pop()
	return v, err == nil
}

func (m *machine) pop2() (uint256.Int, uint256.Int, bool) {
	a, ok := m.pop1()
	if !ok {
		return a, uint256.Int{}, false
	}
	b, ok := m.pop1()
	return a, b, ok
}

func (m *machine) pop3() (uint256.Int, uint256.Int, uint256.Int, bool) {
	a, ok := m.pop1()
	if !ok {
		return a, uint256.Int{}, uint256.Int{}, false
	}
	b, c, ok := m.pop2()
	return a, b, c, ok
}

func (m *machine) push(v *uint256.Int) bool {
	return m.stack.Push(v) == nil
}

func (m *machine) advance(n uint64) {
	m.pc += n
}
