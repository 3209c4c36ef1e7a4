package browser

import (
	"context"
	"fmt"
	"time"
)

// collectJS gathers visible interactive elements and navigation links in one
// pass. Selectors prefer id, then name, then a unique tag.class pair, and
// fall back to an nth-child chain.
const collectJS = `() => {
	const validIdent = (s) => !!s && !/^-?[0-9]/.test(s) && !/[.:#\[\]()>~+*\/\\]/.test(s);

	const selectorOf = (el) => {
		if (el.id && validIdent(el.id)) return '#' + el.id;
		if (el.name) return el.tagName.toLowerCase() + '[name="' + el.name + '"]';
		if (typeof el.className === 'string') {
			const classes = el.className.trim().split(/\s+/).filter(validIdent).slice(0, 2);
			if (classes.length) {
				const sel = el.tagName.toLowerCase() + '.' + classes.join('.');
				try {
					if (document.querySelectorAll(sel).length === 1) return sel;
				} catch (e) {}
			}
		}
		const parent = el.parentElement;
		if (!parent) return el.tagName.toLowerCase();
		const index = Array.from(parent.children).indexOf(el) + 1;
		return selectorOf(parent) + ' > ' + el.tagName.toLowerCase() + ':nth-child(' + index + ')';
	};

	const groups = [
		['button, [role="button"], input[type="submit"], input[type="button"]', () => 'button'],
		['input:not([type="hidden"]):not([type="submit"]):not([type="button"]), textarea', (el) => el.type || 'text'],
		['a[href]:not([href^="#"]):not([href^="javascript:"])', () => 'link'],
		['select', () => 'select'],
	];

	const seen = new Set();
	const elements = [];
	for (const [query, typeOf] of groups) {
		document.querySelectorAll(query).forEach((el) => {
			if (!el.offsetParent) return;
			const selector = selectorOf(el);
			if (seen.has(selector)) return;
			seen.add(selector);
			elements.push({
				selector,
				type: typeOf(el),
				text: (el.textContent || el.value || '').trim().slice(0, 50),
				placeholder: el.placeholder || '',
				name: el.name || '',
			});
		});
	}

	const hrefs = new Set();
	const navigation = [];
	document.querySelectorAll('nav a, header a, [role="navigation"] a').forEach((el) => {
		const href = el.getAttribute('href');
		if (!el.offsetParent || !href || href === '#' || href.startsWith('javascript:') || hrefs.has(href)) return;
		hrefs.add(href);
		navigation.push({
			selector: el.id ? '#' + el.id : 'a[href="' + href + '"]',
			text: (el.textContent || '').trim().slice(0, 30),
			href,
		});
	});

	return { url: location.href, title: document.title, elements, navigation };
}`

// Crawl extracts a PageMap from the current page state
func (b *Browser) Crawl(ctx context.Context) (*PageMap, error) {
	p := b.pageFor(ctx)

	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}
	// Persistent connections (websockets, polling) never go idle; bound the wait
	p.Timeout(5*time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	res, err := p.Eval(collectJS)
	if err != nil {
		return nil, fmt.Errorf("extract page map: %w", err)
	}

	v := res.Value
	m := &PageMap{
		URL:   v.Get("url").String(),
		Title: v.Get("title").String(),
	}
	for _, e := range v.Get("elements").Arr() {
		m.Elements = append(m.Elements, Element{
			Selector:    e.Get("selector").String(),
			Type:        e.Get("type").String(),
			Text:        e.Get("text").String(),
			Placeholder: e.Get("placeholder").String(),
			Name:        e.Get("name").String(),
		})
	}
	for _, n := range v.Get("navigation").Arr() {
		m.Navigation = append(m.Navigation, NavItem{
			Selector: n.Get("selector").String(),
			Text:     n.Get("text").String(),
			Href:     n.Get("href").String(),
		})
	}
	return m, nil
}
