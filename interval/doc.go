/*Package interval implements interval-union operations over sets of
  half-open [start, end) ranges keyed by PosType coordinates.
  (Note the 'union'.  Overlapping/touching intervals are merged, not tracked
  separately.)  It backs the masked-range bookkeeping in package dust.
*/
package interval
