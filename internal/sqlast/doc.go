// Package sqlast defines the SQL fragments produced by the translator and
// renders them to text.
//
// The tree is strictly shaped:
//
//	Union
//	 ├─ Where      → Disjunction → Conjunction... → Relation...
//	 └─ InnerJoin  → Conjunction → Relation...
//
//	Relation = Operand RelationOp Operand
//	Operand  = Column | Constant | Call
//
// Nodes are immutable values. Quoting is not stored on nodes; it is passed
// to Render through RenderOptions, so one tree renders under any dialect.
package sqlast
