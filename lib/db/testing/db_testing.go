package testing

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/ValentinKolb/zKV/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("TypeMismatch", func(t *testing.T) {
			testTypeMismatch(t, factory())
		})

		t.Run("ZSetLifecycle", func(t *testing.T) {
			testZSetLifecycle(t, factory())
		})

		t.Run("Keys", func(t *testing.T) {
			testKeys(t, factory())
		})

		t.Run("ManyKeys", func(t *testing.T) {
			testManyKeys(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("CollisionHandling", func(t *testing.T) {
			testCollisionHandling(t, factory())
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	testKey := "test-key"

	if err := database.Set(testKey, "test-value1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, exists, err := database.Get(testKey)
	if err != nil || !exists {
		t.Errorf("Expected key %s to exist after Set (err=%v)", testKey, err)
	}
	if result != "test-value1" {
		t.Errorf("Expected value %s, got %s", "test-value1", result)
	}

	_ = database.Set(testKey, "test-value2")

	result, _, _ = database.Get(testKey)
	if result != "test-value2" {
		t.Errorf("Expected overwritten value %s, got %s", "test-value2", result)
	}
	if database.Len() != 1 {
		t.Errorf("Overwrite must not add a key, got len %d", database.Len())
	}

	_, exists, err = database.Get("nonexistent-key")
	if exists || err != nil {
		t.Errorf("Expected nonexistent key to return exists=false, err=nil (got %v, %v)", exists, err)
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	_ = database.Set("delete-test-key", "value")

	if !database.Delete("delete-test-key") {
		t.Errorf("Expected Delete to report an existing key")
	}
	if database.Delete("delete-test-key") {
		t.Errorf("Expected second Delete to report a missing key")
	}
	if _, exists, _ := database.Get("delete-test-key"); exists {
		t.Errorf("Expected key to not exist after Delete")
	}

	// deleting a sorted set removes it with all its members
	set, _ := database.ZSet("delete-zset", true)
	set.Insert("member", 1)
	if !database.Delete("delete-zset") {
		t.Errorf("Expected Delete to remove the sorted set key")
	}
	set, _ = database.ZSet("delete-zset", false)
	if set != nil {
		t.Errorf("Expected no sorted set after Delete")
	}
	if database.Len() != 0 {
		t.Errorf("Expected empty database, got %d keys", database.Len())
	}
}

func testTypeMismatch(t *testing.T, database db.KVDB) {
	defer database.Close()

	_ = database.Set("string-key", "bar")
	set, _ := database.ZSet("zset-key", true)
	set.Insert("a", 1)

	if _, err := database.ZSet("string-key", true); !errors.Is(err, db.ErrWrongType) {
		t.Errorf("Expected ErrWrongType for ZSet on a string key, got %v", err)
	}
	if value, _, _ := database.Get("string-key"); value != "bar" {
		t.Errorf("String value must survive a rejected ZSet call, got %q", value)
	}

	if err := database.Set("zset-key", "x"); !errors.Is(err, db.ErrWrongType) {
		t.Errorf("Expected ErrWrongType for Set on a sorted set key, got %v", err)
	}
	if _, _, err := database.Get("zset-key"); !errors.Is(err, db.ErrWrongType) {
		t.Errorf("Expected ErrWrongType for Get on a sorted set key, got %v", err)
	}
	set, err := database.ZSet("zset-key", false)
	if err != nil || set == nil || set.Len() != 1 {
		t.Errorf("Sorted set must survive rejected calls (set=%v, err=%v)", set, err)
	}
}

func testZSetLifecycle(t *testing.T, database db.KVDB) {
	defer database.Close()

	set, err := database.ZSet("z", false)
	if err != nil || set != nil {
		t.Errorf("Expected nil set for a missing key without create (set=%v, err=%v)", set, err)
	}
	if database.Len() != 0 {
		t.Errorf("Lookup without create must not add a key")
	}

	set, err = database.ZSet("z", true)
	if err != nil || set == nil {
		t.Fatalf("Expected a new set, got %v, %v", set, err)
	}
	set.Insert("a", 1)
	set.Insert("b", 2)

	again, _ := database.ZSet("z", true)
	if again != set {
		t.Errorf("Expected the same set on the second call")
	}
	if again.Len() != 2 {
		t.Errorf("Expected 2 members, got %d", again.Len())
	}
	if info := database.GetInfo(); info.ZSets != 1 {
		t.Errorf("Expected 1 sorted set in info, got %d", info.ZSets)
	}
}

func testKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	want := []string{"a", "b", "c", "zset"}
	for _, k := range want[:3] {
		_ = database.Set(k, "v")
	}
	_, _ = database.ZSet("zset", true)

	var got []string
	database.Keys(func(key string) bool {
		got = append(got, key)
		return true
	})
	sort.Strings(got)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected keys %v, got %v", want, got)
	}

	visits := 0
	database.Keys(func(string) bool {
		visits++
		return false
	})
	if visits != 1 {
		t.Errorf("Keys must stop after the visitor returns false, got %d visits", visits)
	}
}

func testManyKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	// enough keys to run through several incremental rehash cycles
	numKeys := 50_000
	for i := 0; i < numKeys; i++ {
		_ = database.Set(fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i))

		// spot check an early key while the index is growing
		if i%997 == 0 {
			if v, ok, _ := database.Get("key-0"); !ok || v != "value-0" {
				t.Fatalf("key-0 lost after %d inserts", i)
			}
		}
	}

	if database.Len() != numKeys {
		t.Errorf("Expected %d keys, got %d", numKeys, database.Len())
	}
	for i := 0; i < numKeys; i++ {
		v, ok, _ := database.Get(fmt.Sprintf("key-%d", i))
		if !ok || v != fmt.Sprintf("value-%d", i) {
			t.Fatalf("key-%d: expected value-%d, got %q (found=%v)", i, i, v, ok)
		}
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	_ = database.Set("", "value for empty key")
	if result, exists, _ := database.Get(""); !exists || result != "value for empty key" {
		t.Errorf("Empty key not stored correctly (found=%v, value=%q)", exists, result)
	}

	_ = database.Set("empty-value-key", "")
	if result, exists, _ := database.Get("empty-value-key"); !exists || result != "" {
		t.Errorf("Empty value not stored correctly (found=%v, value=%q)", exists, result)
	}

	binary := string([]byte{0, 1, 2, 0xff, 0})
	_ = database.Set(binary, binary)
	if result, exists, _ := database.Get(binary); !exists || result != binary {
		t.Errorf("Binary key/value not stored correctly")
	}

	if !t.Failed() {
		largeKey := strings.Repeat("k", 1000)
		largeValue := strings.Repeat("v", 10*1024*1024)

		_ = database.Set(largeKey, largeValue)

		result, exists, _ := database.Get(largeKey)
		if !exists {
			t.Errorf("Large key not found after Set")
		} else if len(result) != len(largeValue) {
			t.Errorf("Large value size mismatch: expected %d, got %d", len(largeValue), len(result))
		}
	}
}

func testCollisionHandling(t *testing.T, database db.KVDB) {
	defer database.Close()

	prefix := "collision-test-"
	numKeys := 1000

	for i := 0; i < numKeys; i++ {
		_ = database.Set(fmt.Sprintf("%s%d", prefix, i), fmt.Sprintf("value-%d", i))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		expectedValue := fmt.Sprintf("value-%d", i)

		actualValue, exists, _ := database.Get(key)
		if !exists {
			t.Errorf("Key %s not found", key)
			continue
		}
		if actualValue != expectedValue {
			t.Errorf("Value for key %s does not match: expected %s, got %s",
				key, expectedValue, actualValue)
		}
	}

	for i := 0; i < numKeys; i += 2 {
		database.Delete(fmt.Sprintf("%s%d", prefix, i))
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		_, exists, _ := database.Get(key)

		if i%2 == 0 {
			if exists {
				t.Errorf("Key %s should be deleted", key)
			}
		} else {
			if !exists {
				t.Errorf("Key %s should still exist", key)
			}
		}
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	for i := 0; i < 100; i++ {
		_ = database.Set(fmt.Sprintf("key-%d", i), "value")
	}
	set, _ := database.ZSet("zset", true)
	set.Insert("m", 1)

	info := database.GetInfo()
	if info.Keys != 101 {
		t.Errorf("Expected 101 keys in info, got %d", info.Keys)
	}
	if info.ZSets != 1 {
		t.Errorf("Expected 1 sorted set in info, got %d", info.ZSets)
	}
	if info.SizeBytes <= 0 {
		t.Errorf("Expected a positive size estimate, got %d", info.SizeBytes)
	}
	if info.Buckets == 0 {
		t.Errorf("Expected a non-empty bucket table")
	}
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	rnd := rand.New(rand.NewSource(42))
	strs := make(map[string]string)
	zsets := make(map[string]map[string]float64)

	numOperations := 20_000
	for i := 0; i < numOperations; i++ {
		var key string
		if i%5 == 0 {
			key = fmt.Sprintf("hot-key-%d", i%50)
		} else {
			key = fmt.Sprintf("key-%d", rnd.Intn(2000))
		}

		switch rnd.Intn(10) {
		case 0, 1, 2, 3:
			err := database.Set(key, fmt.Sprintf("value-%d", i))
			_, isZSet := zsets[key]
			if isZSet != errors.Is(err, db.ErrWrongType) {
				t.Fatalf("op %d: set %s returned %v", i, key, err)
			}
			if err == nil {
				strs[key] = fmt.Sprintf("value-%d", i)
			}
		case 4, 5:
			set, err := database.ZSet(key, true)
			_, isString := strs[key]
			if isString != errors.Is(err, db.ErrWrongType) {
				t.Fatalf("op %d: zset %s returned %v", i, key, err)
			}
			if err == nil {
				member := fmt.Sprintf("m%d", rnd.Intn(20))
				set.Insert(member, float64(i))
				if zsets[key] == nil {
					zsets[key] = make(map[string]float64)
				}
				zsets[key][member] = float64(i)
			}
		case 6, 7, 8:
			value, found, err := database.Get(key)
			want, exists := strs[key]
			if _, isZSet := zsets[key]; isZSet {
				if !errors.Is(err, db.ErrWrongType) {
					t.Fatalf("op %d: get %s on a sorted set returned %v", i, key, err)
				}
				continue
			}
			if found != exists || value != want {
				t.Fatalf("op %d: get %s = (%q, %v), want (%q, %v)", i, key, value, found, want, exists)
			}
		case 9:
			_, isString := strs[key]
			_, isZSet := zsets[key]
			if database.Delete(key) != (isString || isZSet) {
				t.Fatalf("op %d: delete %s reported the wrong result", i, key)
			}
			delete(strs, key)
			delete(zsets, key)
		}
	}

	if database.Len() != len(strs)+len(zsets) {
		t.Errorf("Expected %d keys, got %d", len(strs)+len(zsets), database.Len())
	}
	for key, members := range zsets {
		set, err := database.ZSet(key, false)
		if err != nil || set == nil {
			t.Errorf("Sorted set %s missing (err=%v)", key, err)
			continue
		}
		if set.Len() != len(members) {
			t.Errorf("Sorted set %s: expected %d members, got %d", key, len(members), set.Len())
		}
		for name, score := range members {
			m, ok := set.Lookup(name)
			if !ok || m.Score() != score {
				t.Errorf("Sorted set %s: member %s missing or wrong score", key, name)
			}
		}
	}
}
