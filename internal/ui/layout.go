package ui

// Dialog geometry, in pixels.
const (
	DialogWidth  = 780
	DialogHeight = 460
	DialogPad    = 20
	DialogGap    = 10

	TitleHeight     = 24
	LabelHeight     = 18
	InputHeight     = 40
	DropdownHeight  = 40
	DropdownWidth   = 200
	ButtonRowHeight = 50

	// columnGap separates a label from its input inside a two-column row.
	columnGap = 5
)

// Node is one element of the dialog's retained layout tree. X and Y are
// relative to the parent.
type Node struct {
	Name string
	X, Y int
	W, H int

	parent   *Node
	children []*Node
}

// Add appends c as the last child of n and returns c.
func (n *Node) Add(c *Node) *Node {
	c.parent = n
	n.children = append(n.children, c)
	return c
}

// Parent returns the enclosing node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes in layout order.
func (n *Node) Children() []*Node { return n.children }

// OffsetWithin returns n's vertical offset inside root: the sum of Y for n
// and each ancestor below root. root itself does not contribute.
func (n *Node) OffsetWithin(root *Node) int {
	y := 0
	for cur := n; cur != nil && cur != root; cur = cur.parent {
		y += cur.Y
	}
	return y
}

// Find returns the first descendant (or n itself) with the given name.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// flowColumn stacks the children of n top to bottom starting at pad, with gap
// between them, and sizes n to fit when it has no fixed height.
func flowColumn(n *Node, pad, gap int) {
	y := pad
	for i, c := range n.children {
		if i > 0 {
			y += gap
		}
		c.X = pad
		c.Y = y
		y += c.H
	}
	if n.H == 0 {
		n.H = y + pad
	}
}

// flowRow places the children of n left to right with the free width spread
// between them, and sizes n to the tallest child.
func flowRow(n *Node) {
	used, tallest := 0, 0
	for _, c := range n.children {
		used += c.W
		if c.H > tallest {
			tallest = c.H
		}
	}
	space := 0
	if len(n.children) > 1 {
		space = (n.W - used) / (len(n.children) - 1)
	}
	x := 0
	for _, c := range n.children {
		c.X = x
		c.Y = 0
		x += c.W + space
	}
	n.H = tallest
}

// labelledColumn is a label stacked over an input of the given width.
func labelledColumn(name string, width int) (*Node, *Node) {
	col := &Node{Name: name + "_col", W: width}
	col.Add(&Node{Name: name + "_label", W: width, H: LabelHeight})
	input := col.Add(&Node{Name: name, W: width, H: InputHeight})
	flowColumn(col, 0, columnGap)
	return col, input
}

func percent(total, p int) int {
	return total * p / 100
}

// dialogLayout builds the editor's content tree. The returned map holds the
// node of every text input.
func dialogLayout() (*Node, map[Field]*Node) {
	root := &Node{Name: "content", W: DialogWidth, H: DialogHeight}
	inner := DialogWidth - 2*DialogPad
	inputs := make(map[Field]*Node, fieldCount)

	root.Add(&Node{Name: "title", W: inner, H: TitleHeight})
	root.Add(&Node{Name: "name_label", W: inner, H: LabelHeight})
	inputs[FieldName] = root.Add(&Node{Name: "name", W: inner, H: InputHeight})
	root.Add(&Node{Name: "connection_label", W: inner, H: LabelHeight})
	root.Add(&Node{Name: "connection", W: DropdownWidth, H: DropdownHeight})

	wifi := root.Add(&Node{Name: "wifi_row", W: inner})
	ssidCol, ssid := labelledColumn("ssid", percent(inner, 48))
	pwdCol, pwd := labelledColumn("password", percent(inner, 48))
	wifi.Add(ssidCol)
	wifi.Add(pwdCol)
	flowRow(wifi)
	inputs[FieldSSID], inputs[FieldPassword] = ssid, pwd

	server := root.Add(&Node{Name: "server_row", W: inner})
	hostCol, host := labelledColumn("host", percent(inner, 65))
	portCol, port := labelledColumn("port", percent(inner, 30))
	server.Add(hostCol)
	server.Add(portCol)
	flowRow(server)
	inputs[FieldHost], inputs[FieldPort] = host, port

	root.Add(&Node{Name: "buttons", W: inner, H: ButtonRowHeight})

	flowColumn(root, DialogPad, DialogGap)
	return root, inputs
}
