package hook

import "github.com/AnatoleLucet/hook/internal"

// UseEffect queues body to run after commit when deps changed. The cleanup
// body returns (may be nil) runs before the next body of the same slot and on unmount.
func UseEffect(p *Pass, body func() func(), deps DepList) {
	must(p.pass.UseEffect(internal.EffectPassive, body, deps))
}

// UseLayoutEffect is UseEffect flushed before every passive effect of the
// same commit.
func UseLayoutEffect(p *Pass, body func() func(), deps DepList) {
	must(p.pass.UseEffect(internal.EffectLayout, body, deps))
}
