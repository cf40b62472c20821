// Package zset implements the sorted set value type.
//
// A sorted set holds members that are unique by name and carry a float64
// score. Every member is one allocation that is reachable two ways:
//   - by name, through a hmap.Map keyed by the hash of the name
//   - by order, through an avl.Tree sorted by (score, name)
//
// Names compare byte-wise, a name that is a prefix of another sorts first.
// Changing the score of an existing member repositions it in the tree while
// the name index entry stays untouched.
//
// Example usage:
//
//	z := zset.New()
//	z.Insert("alice", 3)
//	z.Insert("bob", 1)
//
//	// walk everything from score 0 upwards
//	for m, ok := z.SeekGE(0, ""); ok; m, ok = z.Offset(m, 1) {
//		fmt.Println(m.Name(), m.Score())
//	}
package zset
